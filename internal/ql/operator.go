// Package ql implements the executor: a pull-based tree of iterator
// operators (Scan, IndexScan, Filter, Project, NestedLoopJoin) assembled
// by a lightweight planner, plus Insert/Delete/Update DML. Grounded on
// ShubhamNegi4-DaemonDB/query_executor for the per-operation file split
// (exec_select.go, exec_insert.go, exec_update.go, joins.go, index.go),
// reworked from its stack-based VM over JSON rows to an Open/GetNext/
// Close iterator tree over the fixed-width tuples RM/IX already speak.
package ql

import "github.com/David-Chen31/RedBase-Development/internal/types"

// Operator is the executor's iterator interface: Open, then repeated
// GetNext, then Close. GetNext returns rc.QlEof once exhausted. The RID
// returned alongside a tuple only names one underlying RM record for
// operators rooted directly in a single relation (Scan, IndexScan, and
// Filter atop either) — Delete and Update depend on this. Project passes
// its child's RID through unchanged; NestedLoopJoin no longer corresponds
// to one record and returns a zero RID.
type Operator interface {
	Open() error
	GetNext() ([]byte, types.RID, error)
	Close() error
	Schema() []types.DataAttrInfo
	TupleLength() int32
}

func tupleLength(schema []types.DataAttrInfo) int32 {
	var n int32
	for _, info := range schema {
		n += info.AttrLength
	}
	return n
}

// concatSchema builds a join's output schema: left unchanged, right's
// attributes with their offsets shifted past left's tuple length.
func concatSchema(left, right []types.DataAttrInfo) []types.DataAttrInfo {
	shift := tupleLength(left)
	out := make([]types.DataAttrInfo, 0, len(left)+len(right))
	out = append(out, left...)
	for _, info := range right {
		info.Offset += shift
		out = append(out, info)
	}
	return out
}

func concatTuples(left, right []byte) []byte {
	out := make([]byte, len(left)+len(right))
	copy(out, left)
	copy(out[len(left):], right)
	return out
}
