package ql

import (
	"github.com/David-Chen31/RedBase-Development/internal/ix"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/rm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// IndexScan opens an IX scan on one indexed attribute and, for each
// matching RID, fetches the full record via RM.GetRec. The planner
// substitutes this for a Scan+Filter when exactly one local condition
// applies to an indexed attribute via EQ/LT/LE/GT/GE. Grounded on
// spec.md §4.5.
type IndexScan struct {
	fh     *rm.FileHandle
	ixh    *ix.IndexHandle
	schema []types.DataAttrInfo
	op     types.CompOp
	value  []byte
	cursor *ix.IndexScan
}

func NewIndexScan(fh *rm.FileHandle, ixh *ix.IndexHandle, schema []types.DataAttrInfo, op types.CompOp, value []byte) *IndexScan {
	return &IndexScan{fh: fh, ixh: ixh, schema: schema, op: op, value: value}
}

func (s *IndexScan) Open() error {
	cursor, err := s.ixh.OpenScan(s.op, s.value)
	if err != nil {
		return err
	}
	s.cursor = cursor
	return nil
}

func (s *IndexScan) GetNext() ([]byte, types.RID, error) {
	_, rid, err := s.cursor.GetNextEntry()
	if err == rc.IxEof {
		return nil, types.RID{}, rc.QlEof
	}
	if err != nil {
		return nil, types.RID{}, err
	}
	rec, err := s.fh.GetRec(rid)
	if err != nil {
		return nil, types.RID{}, err
	}
	return rec.Data, rec.RID, nil
}

func (s *IndexScan) Close() error                 { return s.cursor.Close() }
func (s *IndexScan) Schema() []types.DataAttrInfo { return s.schema }
func (s *IndexScan) TupleLength() int32           { return tupleLength(s.schema) }
