package ql

import (
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/rm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// Scan wraps an RM.FileScan with NO_OP, yielding every live record of a
// relation in storage order. Grounded on spec.md §4.5.
type Scan struct {
	fh     *rm.FileHandle
	schema []types.DataAttrInfo
	cursor *rm.FileScan
}

func NewScan(fh *rm.FileHandle, schema []types.DataAttrInfo) *Scan {
	return &Scan{fh: fh, schema: schema}
}

func (s *Scan) Open() error {
	cursor, err := rm.OpenScan(s.fh, types.AttrInt, 0, 0, types.NoOp, nil)
	if err != nil {
		return err
	}
	s.cursor = cursor
	return nil
}

func (s *Scan) GetNext() ([]byte, types.RID, error) {
	rec, err := s.cursor.GetNextRec()
	if err == rc.RmEof {
		return nil, types.RID{}, rc.QlEof
	}
	if err != nil {
		return nil, types.RID{}, err
	}
	return rec.Data, rec.RID, nil
}

func (s *Scan) Close() error                 { return s.cursor.Close() }
func (s *Scan) Schema() []types.DataAttrInfo { return s.schema }
func (s *Scan) TupleLength() int32           { return tupleLength(s.schema) }
