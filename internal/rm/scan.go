package rm

import (
	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// FileScan is a forward-only, non-restartable cursor over one RM file's
// live records, applying a pushed-down comparison predicate. Multiple
// scans may be open concurrently on the same FileHandle; each keeps its
// own cursor and pins only the page it is currently visiting. Grounded on
// original_source/RM/src/rm_filescan.cc.
type FileScan struct {
	h      *FileHandle
	opened bool
	done   bool

	attrType   types.AttrType
	attrLength int32
	attrOffset int32
	op         types.CompOp
	value      []byte

	curPage int32
	curSlot int32

	logger *zap.Logger
}

// OpenScan begins a scan over h with the given predicate. A nil value is
// only valid with types.NoOp, which matches every live record.
func OpenScan(h *FileHandle, attrType types.AttrType, attrLength, attrOffset int32, op types.CompOp, value []byte) (*FileScan, error) {
	return &FileScan{
		h:          h,
		opened:     true,
		attrType:   attrType,
		attrLength: attrLength,
		attrOffset: attrOffset,
		op:         op,
		value:      value,
		curPage:    1, // page 0 is the RM file header; data pages start at 1
		curSlot:    0,
		logger:     h.logger,
	}, nil
}

func (s *FileScan) matches(rec []byte) bool {
	if s.op == types.NoOp {
		return true
	}
	cmp := types.Compare(s.attrType, rec[s.attrOffset:s.attrOffset+s.attrLength], s.value, int(s.attrLength))
	return types.Satisfies(s.op, cmp)
}

// GetNextRec returns the next live record satisfying the scan's
// predicate, or rc.RmEof when the file is exhausted.
func (s *FileScan) GetNextRec() (Record, error) {
	if !s.opened {
		return Record{}, rc.RmScanNotOpen
	}
	if s.done {
		return Record{}, rc.RmEof
	}

	for s.curPage < s.h.header.numPages {
		page, err := s.h.pf.GetPage(s.curPage)
		if err != nil {
			return Record{}, err
		}

		bitmap := page.Payload[s.h.bitmapOffset() : s.h.bitmapOffset()+bitmapBytes(s.h.header.maxSlots)]
		for s.curSlot < s.h.header.maxSlots {
			slot := s.curSlot
			s.curSlot++
			if !testBit(bitmap, slot) {
				continue
			}
			off := dataOffset(s.h.header.maxSlots, slot, s.h.header.recordSize)
			rec := page.Payload[off : off+s.h.header.recordSize]
			if s.matches(rec) {
				data := make([]byte, s.h.header.recordSize)
				copy(data, rec)
				if err := page.Unpin(); err != nil {
					return Record{}, err
				}
				return Record{RID: types.RID{PageNum: s.curPage, SlotNum: slot}, Data: data}, nil
			}
		}

		if err := page.Unpin(); err != nil {
			return Record{}, err
		}
		s.curPage++
		s.curSlot = 0
	}

	s.done = true
	return Record{}, rc.RmEof
}

// Close ends the scan. Further GetNextRec calls fail with
// rc.RmScanNotOpen.
func (s *FileScan) Close() error {
	s.opened = false
	return nil
}
