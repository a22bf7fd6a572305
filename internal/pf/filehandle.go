package pf

import (
	"io"

	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/rc"
)

// FileHandle is a caller's view of one open paged file. It is the only
// thing RM/IX ever hold — no raw descriptors escape this package.
type FileHandle struct {
	mgr    *Manager
	hid    int
	name   string
	file   fileIO
	header fileHeader
	logger *zap.Logger
	closed bool
}

// fileIO is the subset of *os.File this package needs; defined as an
// interface so tests can substitute an in-memory fake without touching
// the real filesystem.
type fileIO interface {
	ReadAt(b []byte, off int64) (int, error)
	WriteAt(b []byte, off int64) (int, error)
	Close() error
}

func (fh *FileHandle) writeHeader() error {
	n, err := fh.file.WriteAt(fh.header.marshal(), 0)
	if err != nil || n != fileHeaderSize {
		return rc.PfHdrWrite
	}
	return nil
}

// NumPages returns the number of pages in the file, including any on
// the free list.
func (fh *FileHandle) NumPages() int32 {
	return fh.header.numPages
}

// checkOpen guards against use-after-close.
func (fh *FileHandle) checkOpen() error {
	if fh.closed {
		return rc.PfClosedFile
	}
	return nil
}

// GetPage fetches page num, pinned once. Fails with rc.PfInvalidPage if
// num is out of [0, NumPages()).
func (fh *FileHandle) GetPage(num PageNum) (*Page, error) {
	if err := fh.checkOpen(); err != nil {
		return nil, err
	}
	if num < 0 || num >= fh.header.numPages {
		return nil, rc.PfInvalidPage
	}
	fh.mgr.mu.Lock()
	defer fh.mgr.mu.Unlock()
	return fh.mgr.fetchLocked(fh, num)
}

// fetchLocked implements BufferManager::FetchPage (grounded on
// original_source/PF/internal/buffer_manager.cc): hit promotes to MRU
// and pins; miss selects a victim, flushes it if dirty, reads the
// requested page from disk, and installs it pinned at MRU.
func (m *Manager) fetchLocked(fh *FileHandle, num PageNum) (*Page, error) {
	key := pageKey{hid: fh.hid, num: num}
	if idx, ok := m.pool.lookup(key); ok {
		m.pool.pin(idx)
		m.logger.Debug("buffer pool hit", zap.String("file", fh.name), zap.Int32("page", num))
		return &Page{Num: num, Payload: m.pool.frames[idx].payload, fh: fh, frameID: idx}, nil
	}

	m.logger.Debug("buffer pool miss", zap.String("file", fh.name), zap.Int32("page", num))
	idx, err := m.pool.selectVictim()
	if err != nil {
		return nil, err
	}
	if m.pool.frames[idx].hid != 0 && m.pool.frames[idx].dirty {
		if err := m.writeFrame(idx); err != nil {
			return nil, err
		}
	}
	m.pool.evict(idx)

	payload := make([]byte, PageSize)
	if _, err := fh.file.ReadAt(payload, pageOffset(num)+int64(pageHeaderSize)); err != nil && err != io.EOF {
		return nil, rc.PfIncompleteRead
	}
	// A short read (including io.EOF) at the tail of a sparse file means a
	// new, never-written page: payload stays zero-initialized rather than
	// erroring, per spec.md §4.1.

	m.pool.install(idx, key, payload)
	return &Page{Num: num, Payload: m.pool.frames[idx].payload, fh: fh, frameID: idx}, nil
}

// writeFrame writes one dirty frame back to the file it belongs to.
func (m *Manager) writeFrame(idx int) error {
	f := &m.pool.frames[idx]
	if f.hid == 0 {
		return nil
	}
	fh, ok := m.open[f.hid]
	if !ok {
		return nil // file already closed; nothing to flush
	}
	n, err := fh.file.WriteAt(f.payload, pageOffset(f.num)+int64(pageHeaderSize))
	if err != nil || n != PageSize {
		return rc.PfIncompleteWrite
	}
	f.dirty = false
	return nil
}

// MarkDirty flags num's frame as needing a writeback. Fails with
// rc.PfPageNotInBuf if num is not currently resident.
func (fh *FileHandle) MarkDirty(num PageNum) error {
	fh.mgr.mu.Lock()
	defer fh.mgr.mu.Unlock()
	idx, ok := fh.mgr.pool.lookup(pageKey{hid: fh.hid, num: num})
	if !ok {
		return rc.PfPageNotInBuf
	}
	fh.mgr.pool.frames[idx].dirty = true
	return nil
}

// UnpinPage releases one pin on num. Fails with rc.PfPageUnpinned if the
// page's pin count is already zero.
func (fh *FileHandle) UnpinPage(num PageNum) error {
	fh.mgr.mu.Lock()
	defer fh.mgr.mu.Unlock()
	idx, ok := fh.mgr.pool.lookup(pageKey{hid: fh.hid, num: num})
	if !ok {
		return rc.PfPageNotInBuf
	}
	f := &fh.mgr.pool.frames[idx]
	if f.pinCount == 0 {
		return rc.PfPageUnpinned
	}
	f.pinCount--
	if f.pinCount == 0 {
		fh.mgr.pool.touchMRU(idx)
	}
	return nil
}

// AllocatePage reserves a page for the caller, pinned: first from the
// file's free list, else by extending the file by one page. The returned
// page is zero-initialized and already marked dirty, so the new page is
// written back on flush or eviction even if the caller never calls
// MarkDirty.
func (fh *FileHandle) AllocatePage() (*Page, error) {
	if err := fh.checkOpen(); err != nil {
		return nil, err
	}
	fh.mgr.mu.Lock()
	defer fh.mgr.mu.Unlock()

	if err := fh.mgr.quota.reserve(1); err != nil {
		return nil, err
	}

	var num PageNum
	reusingFree := fh.header.firstFree != NoFreePage
	if reusingFree {
		num = fh.header.firstFree
	} else {
		num = fh.header.numPages
	}

	page, err := fh.mgr.fetchLocked(fh, num)
	if err != nil {
		fh.mgr.quota.release(1)
		return nil, err
	}

	if reusingFree {
		var ph pageHeader
		ph.unmarshal(prefixOf(page))
		fh.header.firstFree = ph.nextFree
	} else {
		fh.header.numPages++
	}

	for i := range page.Payload {
		page.Payload[i] = 0
	}
	fh.mgr.pool.frames[page.frameID].dirty = true

	if err := fh.writeHeader(); err != nil {
		fh.mgr.quota.release(1)
		return nil, err
	}

	return page, nil
}

// prefixOf reads the pageHeader bytes that sit just ahead of a page's
// payload on disk. AllocatePage needs this once, to consume the free
// list link of a reused page; RM/IX never see it.
func prefixOf(p *Page) []byte {
	buf := make([]byte, pageHeaderSize)
	n, err := p.fh.file.ReadAt(buf, pageOffset(p.Num))
	if err != nil || n != pageHeaderSize {
		// New page past EOF: header is implicitly NoFreePage.
		var ph pageHeader
		ph.nextFree = NoFreePage
		return ph.marshal()
	}
	return buf
}

// DisposePage threads num onto the file's free list.
func (fh *FileHandle) DisposePage(num PageNum) error {
	if err := fh.checkOpen(); err != nil {
		return err
	}
	fh.mgr.mu.Lock()
	defer fh.mgr.mu.Unlock()

	if num < 0 || num >= fh.header.numPages {
		return rc.PfInvalidPage
	}

	ph := pageHeader{nextFree: fh.header.firstFree}
	if n, err := fh.file.WriteAt(ph.marshal(), pageOffset(num)); err != nil || n != pageHeaderSize {
		return rc.PfIncompleteWrite
	}
	fh.header.firstFree = num
	if err := fh.writeHeader(); err != nil {
		return err
	}
	fh.mgr.quota.release(1)
	return nil
}

// ForcePages writes dirty frames for num (or every page, if num is nil)
// to disk without evicting or unpinning them.
func (fh *FileHandle) ForcePages(num *PageNum) error {
	if err := fh.checkOpen(); err != nil {
		return err
	}
	fh.mgr.mu.Lock()
	defer fh.mgr.mu.Unlock()
	return fh.mgr.forcePagesLocked(fh, num)
}

func (m *Manager) forcePagesLocked(fh *FileHandle, num *PageNum) error {
	for i := range m.pool.frames {
		f := &m.pool.frames[i]
		if f.hid != fh.hid || !f.dirty {
			continue
		}
		if num != nil && f.num != *num {
			continue
		}
		if err := m.writeFrame(i); err != nil {
			return err
		}
	}
	return nil
}

// GetFirstPage returns the lowest-numbered page in the file.
func (fh *FileHandle) GetFirstPage() (*Page, error) { return fh.GetPage(0) }

// GetLastPage returns the highest-numbered page in the file.
func (fh *FileHandle) GetLastPage() (*Page, error) { return fh.GetPage(fh.header.numPages - 1) }

// GetNextPage returns the page immediately after num, or rc.PfEof if num
// is the last page.
func (fh *FileHandle) GetNextPage(num PageNum) (*Page, error) {
	if num+1 >= fh.header.numPages {
		return nil, rc.PfEof
	}
	return fh.GetPage(num + 1)
}

// GetPrevPage returns the page immediately before num, or rc.PfEof if
// num is the first page.
func (fh *FileHandle) GetPrevPage(num PageNum) (*Page, error) {
	if num-1 < 0 {
		return nil, rc.PfEof
	}
	return fh.GetPage(num - 1)
}
