package ql

import (
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// NestedLoopJoin pairs every outer (left) tuple against a fresh pass of
// the inner (right) operator, restarting the right operator (Close then
// Open) once per outer tuple, per spec.md §4.5 and §5's "restarts the
// inner scan by Close then Open (a fresh iterator)". Output schema is
// left∥right, with right-side offsets shifted by the left tuple length.
type NestedLoopJoin struct {
	left, right Operator
	conditions  []Condition
	schema      []types.DataAttrInfo

	leftData []byte
}

func NewNestedLoopJoin(left, right Operator, conditions []Condition) *NestedLoopJoin {
	return &NestedLoopJoin{
		left:       left,
		right:      right,
		conditions: conditions,
		schema:     concatSchema(left.Schema(), right.Schema()),
	}
}

func (j *NestedLoopJoin) Open() error {
	if err := j.left.Open(); err != nil {
		return err
	}
	if err := j.right.Open(); err != nil {
		j.left.Close()
		return err
	}
	return j.advanceLeft()
}

func (j *NestedLoopJoin) advanceLeft() error {
	data, _, err := j.left.GetNext()
	if err == rc.QlEof {
		j.leftData = nil
		return nil
	}
	if err != nil {
		return err
	}
	j.leftData = data
	return nil
}

func (j *NestedLoopJoin) GetNext() ([]byte, types.RID, error) {
	for j.leftData != nil {
		rdata, _, err := j.right.GetNext()
		if err == rc.QlEof {
			if err := j.right.Close(); err != nil {
				return nil, types.RID{}, err
			}
			if err := j.right.Open(); err != nil {
				return nil, types.RID{}, err
			}
			if err := j.advanceLeft(); err != nil {
				return nil, types.RID{}, err
			}
			continue
		}
		if err != nil {
			return nil, types.RID{}, err
		}

		combined := concatTuples(j.leftData, rdata)
		match := true
		for _, c := range j.conditions {
			if !evalCondition(j.schema, combined, c) {
				match = false
				break
			}
		}
		if match {
			return combined, types.RID{}, nil
		}
	}
	return nil, types.RID{}, rc.QlEof
}

func (j *NestedLoopJoin) Close() error {
	rerr := j.right.Close()
	lerr := j.left.Close()
	if rerr != nil {
		return rerr
	}
	return lerr
}

func (j *NestedLoopJoin) Schema() []types.DataAttrInfo { return j.schema }
func (j *NestedLoopJoin) TupleLength() int32           { return tupleLength(j.schema) }
