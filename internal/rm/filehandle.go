package rm

import (
	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// Record is a copy of one live record's bytes together with its RID.
type Record struct {
	RID  types.RID
	Data []byte
}

// FileHandle is a caller's view of one open RM heap file.
type FileHandle struct {
	pf     *pf.FileHandle
	name   string
	header fileHeader
	logger *zap.Logger
}

func (h *FileHandle) writeHeader() error {
	page, err := h.pf.GetPage(0)
	if err != nil {
		return err
	}
	copy(page.Payload, h.header.marshal())
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return err
	}
	return page.Unpin()
}

// dataOffset returns the byte offset of slot s's record within a data
// page's payload.
func dataOffset(maxSlots, s int32, recordSize int32) int32 {
	return pageHeaderSize + bitmapBytes(maxSlots) + s*recordSize
}

func (h *FileHandle) bitmapOffset() int32 { return pageHeaderSize }

func validRID(rid types.RID, maxSlots int32) error {
	if rid.PageNum <= 0 {
		return rc.RmInvalidRIDPageNum
	}
	if rid.SlotNum < 0 || rid.SlotNum >= maxSlots {
		return rc.RmInvalidRIDSlotNum
	}
	return nil
}

// GetRec fetches the record named by rid. Fails with rc.RmRecordNotFound
// if the slot's bitmap bit is clear.
func (h *FileHandle) GetRec(rid types.RID) (Record, error) {
	if err := validRID(rid, h.header.maxSlots); err != nil {
		return Record{}, err
	}
	page, err := h.pf.GetPage(rid.PageNum)
	if err != nil {
		return Record{}, err
	}
	defer page.Unpin()

	bitmap := page.Payload[h.bitmapOffset() : h.bitmapOffset()+bitmapBytes(h.header.maxSlots)]
	if !testBit(bitmap, rid.SlotNum) {
		return Record{}, rc.RmRecordNotFound
	}

	off := dataOffset(h.header.maxSlots, rid.SlotNum, h.header.recordSize)
	data := make([]byte, h.header.recordSize)
	copy(data, page.Payload[off:off+h.header.recordSize])
	return Record{RID: rid, Data: data}, nil
}

// InsertRec inserts data (exactly recordSize bytes) into the first
// available slot, allocating a new page if every existing page is full.
// Grounded on original_source/RM/src/rm_filehandle.cc's InsertRec walk of
// firstFreePage.
func (h *FileHandle) InsertRec(data []byte) (types.RID, error) {
	if int32(len(data)) != h.header.recordSize {
		return types.NullRID, rc.RmInvalidRecord
	}

	for {
		pageNum := h.header.firstFreePage
		if pageNum == noFreePage {
			var err error
			pageNum, err = h.allocateDataPage()
			if err != nil {
				return types.NullRID, err
			}
		}

		page, err := h.pf.GetPage(pageNum)
		if err != nil {
			return types.NullRID, err
		}

		var ph pageHeader
		ph.unmarshal(page.Payload[:pageHeaderSize])

		bitmap := page.Payload[h.bitmapOffset() : h.bitmapOffset()+bitmapBytes(h.header.maxSlots)]
		slot := findFreeSlot(bitmap, h.header.maxSlots)
		if slot < 0 {
			// Stale free-list entry (shouldn't happen if bookkeeping is
			// correct); detach it and retry with the next page.
			h.header.firstFreePage = ph.nextFreePage
			page.Unpin()
			continue
		}

		setBit(bitmap, slot)
		off := dataOffset(h.header.maxSlots, slot, h.header.recordSize)
		copy(page.Payload[off:off+h.header.recordSize], data)

		ph.numRecords++
		wasFull := ph.numRecords == h.header.maxSlots
		copy(page.Payload[:pageHeaderSize], ph.marshal())

		if wasFull {
			h.header.firstFreePage = ph.nextFreePage
		}

		if err := page.MarkDirty(); err != nil {
			page.Unpin()
			return types.NullRID, err
		}
		if err := page.Unpin(); err != nil {
			return types.NullRID, err
		}
		if err := h.writeHeader(); err != nil {
			return types.NullRID, err
		}
		return types.RID{PageNum: pageNum, SlotNum: slot}, nil
	}
}

// allocateDataPage extends the file with a fresh, all-free data page and
// threads it onto the head of the free list.
func (h *FileHandle) allocateDataPage() (int32, error) {
	page, err := h.pf.AllocatePage()
	if err != nil {
		return 0, err
	}
	ph := pageHeader{numRecords: 0, nextFreePage: h.header.firstFreePage}
	copy(page.Payload[:pageHeaderSize], ph.marshal())
	for i := pageHeaderSize; i < len(page.Payload); i++ {
		page.Payload[i] = 0
	}
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return 0, err
	}
	pageNum := page.Num
	if err := page.Unpin(); err != nil {
		return 0, err
	}
	h.header.firstFreePage = pageNum
	h.header.numPages++
	return pageNum, nil
}

// DeleteRec clears rid's bitmap bit. Fails with rc.RmRecordNotFound if
// the slot is already clear.
func (h *FileHandle) DeleteRec(rid types.RID) error {
	if err := validRID(rid, h.header.maxSlots); err != nil {
		return err
	}
	page, err := h.pf.GetPage(rid.PageNum)
	if err != nil {
		return err
	}

	var ph pageHeader
	ph.unmarshal(page.Payload[:pageHeaderSize])
	bitmap := page.Payload[h.bitmapOffset() : h.bitmapOffset()+bitmapBytes(h.header.maxSlots)]

	if !testBit(bitmap, rid.SlotNum) {
		page.Unpin()
		return rc.RmRecordNotFound
	}

	wasFull := ph.numRecords == h.header.maxSlots
	clearBit(bitmap, rid.SlotNum)
	ph.numRecords--
	copy(page.Payload[:pageHeaderSize], ph.marshal())

	if wasFull {
		ph.nextFreePage = h.header.firstFreePage
		copy(page.Payload[:pageHeaderSize], ph.marshal())
		h.header.firstFreePage = rid.PageNum
	}

	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return err
	}
	if err := page.Unpin(); err != nil {
		return err
	}
	if wasFull {
		return h.writeHeader()
	}
	return nil
}

// UpdateRec overwrites a live record's bytes in place. Fails with
// rc.RmInvalidRecord if data is the wrong length, or rc.RmRecordNotFound
// if rid's slot is not live.
func (h *FileHandle) UpdateRec(rid types.RID, data []byte) error {
	if int32(len(data)) != h.header.recordSize {
		return rc.RmInvalidRecord
	}
	if err := validRID(rid, h.header.maxSlots); err != nil {
		return err
	}
	page, err := h.pf.GetPage(rid.PageNum)
	if err != nil {
		return err
	}
	bitmap := page.Payload[h.bitmapOffset() : h.bitmapOffset()+bitmapBytes(h.header.maxSlots)]
	if !testBit(bitmap, rid.SlotNum) {
		page.Unpin()
		return rc.RmRecordNotFound
	}
	off := dataOffset(h.header.maxSlots, rid.SlotNum, h.header.recordSize)
	copy(page.Payload[off:off+h.header.recordSize], data)
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return err
	}
	return page.Unpin()
}

// ForcePages flushes this file's dirty pages to disk.
func (h *FileHandle) ForcePages() error {
	return h.pf.ForcePages(nil)
}

// RecordSize returns the fixed record length this file was created with.
func (h *FileHandle) RecordSize() int32 { return h.header.recordSize }

// NumPages returns the number of pages in the underlying file, including
// page 0 (the RM file header).
func (h *FileHandle) NumPages() int32 { return h.header.numPages }

// MaxSlots returns the number of record slots per data page.
func (h *FileHandle) MaxSlots() int32 { return h.header.maxSlots }
