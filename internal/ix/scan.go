package ix

import (
	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// IndexScan walks the leaf chain of one open index, filtering every
// entry against a single comparison predicate. Termination is
// conservative (spec.md §9's Open Question, resolved in DESIGN.md):
// EQ_OP stops early at the first strictly-greater key since keys ascend
// within and across leaves; every other operator walks to the true end
// of the leaf chain, testing every remaining entry.
type IndexScan struct {
	h      *IndexHandle
	opened bool
	done   bool

	op    types.CompOp
	value []byte

	curPage   int32
	curIdx    int
	curLeaf   []leafEntry
	nextRight int32

	logger *zap.Logger
}

// OpenScan begins a scan for entries satisfying op against value. A nil
// value is only valid with NoOp (full scan); op values that compare
// against value (EQ/GT/GE) start their walk at the leaf that would hold
// value, since every smaller-keyed leaf can only fail the predicate. All
// other operators (LT/LE/NE, and NoOp) start at the leftmost leaf.
func (h *IndexHandle) OpenScan(op types.CompOp, value []byte) (*IndexScan, error) {
	s := &IndexScan{h: h, opened: true, op: op, value: value, logger: h.logger}

	if h.header.rootPage == noPage {
		s.done = true
		return s, nil
	}

	var startPage int32
	var err error
	switch op {
	case types.EqOp, types.GtOp, types.GeOp:
		startPage, err = h.findLeaf(h.header.rootPage, value)
	default:
		startPage, err = h.leftmostLeaf(h.header.rootPage)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadLeaf(startPage); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *IndexHandle) leftmostLeaf(pageNum int32) (int32, error) {
	page, err := h.pf.GetPage(pageNum)
	if err != nil {
		return 0, err
	}
	var hdr nodeHeader
	hdr.unmarshal(page.Payload[:nodeHeaderSize])
	if hdr.isLeaf {
		if err := page.Unpin(); err != nil {
			return 0, err
		}
		return pageNum, nil
	}
	leadingChild, _ := readInternalEntries(page.Payload, hdr, h.header.attrLength)
	if err := page.Unpin(); err != nil {
		return 0, err
	}
	return h.leftmostLeaf(leadingChild)
}

func (s *IndexScan) loadLeaf(pageNum int32) error {
	page, err := s.h.pf.GetPage(pageNum)
	if err != nil {
		return err
	}
	var hdr nodeHeader
	hdr.unmarshal(page.Payload[:nodeHeaderSize])
	entries := readLeafEntries(page.Payload, hdr, s.h.header.attrLength)
	if err := page.Unpin(); err != nil {
		return err
	}
	s.curPage = pageNum
	s.curLeaf = entries
	s.curIdx = 0
	s.nextRight = hdr.right
	return nil
}

// GetNextEntry returns the next (key, rid) satisfying the scan's
// predicate, or rc.IxEof when the walk is exhausted.
func (s *IndexScan) GetNextEntry() ([]byte, types.RID, error) {
	if !s.opened {
		return nil, types.RID{}, rc.IxScanNotOpen
	}
	for {
		if s.done {
			return nil, types.RID{}, rc.IxEof
		}
		if s.curIdx >= len(s.curLeaf) {
			if s.nextRight == noPage {
				s.done = true
				continue
			}
			if err := s.loadLeaf(s.nextRight); err != nil {
				return nil, types.RID{}, err
			}
			continue
		}

		e := s.curLeaf[s.curIdx]
		cmp := 0
		if s.value != nil {
			cmp = types.Compare(s.h.header.attrType, e.key, s.value, int(s.h.header.attrLength))
		}

		if s.op == types.EqOp && cmp > 0 {
			s.done = true
			continue
		}

		s.curIdx++
		if types.Satisfies(s.op, cmp) {
			return e.key, e.rid, nil
		}
	}
}

// Close ends the scan.
func (s *IndexScan) Close() error {
	if !s.opened {
		return rc.IxScanNotOpen
	}
	s.opened = false
	return nil
}
