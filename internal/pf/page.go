// Package pf implements the paged file layer: fixed-size pages, an LRU
// buffer pool with pin/dirty semantics, a page-table hash index, a
// per-file free-page list, and a per-database disk quota persisted
// across sessions. Every other layer (RM, IX) sees only page handles
// returned from here; PF owns the only file descriptors.
package pf

const (
	// PageSize is the payload size of a page, matching the paper's 4092
	// usable bytes per page (spec.md §3).
	PageSize = 4092

	// pageHeaderSize is PF's own per-page header: a single int32 nextFree
	// link used only while the page sits on a file's free-page list.
	pageHeaderSize = 4

	// fileHeaderSize is the PF_FileHeader preamble: {firstFree, numPages}.
	fileHeaderSize = 8

	// pageStride is the on-disk size of one page record (header+payload).
	pageStride = pageHeaderSize + PageSize

	// NoFreePage is the end-of-free-list sentinel used for both
	// firstFree (file header) and nextFree (page header).
	NoFreePage = -1

	// DefaultBufferFrames is the default buffer pool capacity, grounded
	// on original_source/PF/include/pf.h's PF_BUFFER_SIZE (40 frames).
	DefaultBufferFrames = 40
)

// PageNum identifies a page within one paged file, 0-based.
type PageNum = int32

// Page is a pinned handle to one resident buffer frame. Callers read and
// write Payload directly; MarkDirty must be called before Unpin whenever
// Payload was mutated. Payload is exactly PageSize bytes and never
// includes PF's own nextFree header.
type Page struct {
	Num     PageNum
	Payload []byte

	fh      *FileHandle
	frameID int
}

// MarkDirty flags the page's frame as needing a writeback before it can
// be evicted or before the file is closed.
func (p *Page) MarkDirty() error {
	return p.fh.MarkDirty(p.Num)
}

// Unpin releases the caller's pin on the page. Every Page obtained from
// GetPage/AllocatePage/GetFirstPage/... must be unpinned exactly once.
func (p *Page) Unpin() error {
	return p.fh.UnpinPage(p.Num)
}
