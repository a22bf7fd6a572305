package ql

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/David-Chen31/RedBase-Development/internal/ix"
	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/rm"
	"github.com/David-Chen31/RedBase-Development/internal/sm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	dir := t.TempDir()
	pfMgr := pf.NewManager(pf.Config{BufferFrames: 64})
	rmMgr := rm.NewManager(pfMgr, nil)
	ixMgr := ix.NewManager(pfMgr, nil)
	smMgr := sm.NewManager(rmMgr, ixMgr, dir, nil)
	require.NoError(t, smMgr.Bootstrap())
	t.Cleanup(func() { smMgr.Close() })
	return NewExecutor(smMgr, rmMgr, ixMgr, nil)
}

func drain(t *testing.T, op Operator) [][]byte {
	t.Helper()
	require.NoError(t, op.Open())
	var out [][]byte
	for {
		data, _, err := op.GetNext()
		if err == rc.QlEof {
			break
		}
		require.NoError(t, err)
		cp := append([]byte{}, data...)
		out = append(out, cp)
	}
	require.NoError(t, op.Close())
	return out
}

func intVal(v int32) Value    { return Value{Type: types.AttrInt, Int: v} }
func strVal(s string) Value   { return Value{Type: types.AttrString, Str: s} }
func attrRef(n string) AttrRef { return AttrRef{AttrName: n} }

func TestInsertSelectAllRoundTrip(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("emp", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "dept", Type: types.AttrInt, Length: 4},
	}))

	for i := int32(0); i < 10; i++ {
		_, err := e.Insert("emp", []Value{intVal(i), intVal(i % 3)})
		require.NoError(t, err)
	}

	op, err := e.Select(SelectRequest{
		Attrs:     []AttrSelector{{AttrName: "*"}},
		Relations: []string{"emp"},
	})
	require.NoError(t, err)
	rows := drain(t, op)
	require.Len(t, rows, 10)
}

func TestSelectWithFilterAndProject(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("emp", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "dept", Type: types.AttrInt, Length: 4},
	}))
	for i := int32(0); i < 10; i++ {
		_, err := e.Insert("emp", []Value{intVal(i), intVal(i % 3)})
		require.NoError(t, err)
	}

	op, err := e.Select(SelectRequest{
		Attrs:     []AttrSelector{{AttrName: "id"}},
		Relations: []string{"emp"},
		Conditions: []CondSpec{
			{Left: Operand{Attr: ptrAttr(attrRef("dept"))}, Op: types.EqOp, Right: Operand{Literal: ptrVal(intVal(1))}},
		},
	})
	require.NoError(t, err)
	rows := drain(t, op)
	// i in [1,4,7] satisfy i % 3 == 1
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, 4)
	}
}

func TestSelectUsesIndexScanWhenAttrIndexed(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("emp", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
	}))
	require.NoError(t, e.sm.CreateIndex("emp", "id"))
	for i := int32(0); i < 50; i++ {
		_, err := e.Insert("emp", []Value{intVal(i)})
		require.NoError(t, err)
	}

	schema, err := e.sm.GetRelInfo("emp")
	require.NoError(t, err)
	op, err := e.buildRelationOperator("emp", schema, []CondSpec{
		{Left: Operand{Attr: ptrAttr(attrRef("id"))}, Op: types.EqOp, Right: Operand{Literal: ptrVal(intVal(17))}},
	})
	require.NoError(t, err)
	_, isIndexScan := op.(*IndexScan)
	require.True(t, isIndexScan)

	rows := drain(t, op)
	require.Len(t, rows, 1)
}

// TestJoinWithoutIndex and TestJoinWithIndex are spec.md §8 scenario 4:
// emp(id, dept), dept(id, name), SELECT name FROM emp, dept WHERE
// emp.dept = dept.id — with and without an index on dept.id.
func TestJoinWithoutIndex(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("emp", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "dept", Type: types.AttrInt, Length: 4},
	}))
	require.NoError(t, e.sm.CreateTable("dept", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "name", Type: types.AttrString, Length: 8},
	}))

	for i := int32(0); i < 6; i++ {
		_, err := e.Insert("emp", []Value{intVal(i), intVal(i % 3)})
		require.NoError(t, err)
	}
	for i := int32(0); i < 3; i++ {
		_, err := e.Insert("dept", []Value{intVal(i), strVal("dept" + string(rune('A'+i)))})
		require.NoError(t, err)
	}

	op, err := e.Select(SelectRequest{
		Attrs:     []AttrSelector{{AttrName: "name"}},
		Relations: []string{"emp", "dept"},
		Conditions: []CondSpec{
			{
				Left:  Operand{Attr: ptrAttr(AttrRef{RelName: "emp", AttrName: "dept"})},
				Op:    types.EqOp,
				Right: Operand{Attr: ptrAttr(AttrRef{RelName: "dept", AttrName: "id"})},
			},
		},
	})
	require.NoError(t, err)
	rows := drain(t, op)
	require.Len(t, rows, 6)
}

func TestJoinWithIndexOnJoinKey(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("emp", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "dept", Type: types.AttrInt, Length: 4},
	}))
	require.NoError(t, e.sm.CreateTable("dept", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "name", Type: types.AttrString, Length: 8},
	}))
	require.NoError(t, e.sm.CreateIndex("dept", "id"))

	for i := int32(0); i < 6; i++ {
		_, err := e.Insert("emp", []Value{intVal(i), intVal(i % 3)})
		require.NoError(t, err)
	}
	for i := int32(0); i < 3; i++ {
		_, err := e.Insert("dept", []Value{intVal(i), strVal("dept" + string(rune('A'+i)))})
		require.NoError(t, err)
	}

	op, err := e.Select(SelectRequest{
		Attrs:     []AttrSelector{{AttrName: "name"}},
		Relations: []string{"emp", "dept"},
		Conditions: []CondSpec{
			{
				Left:  Operand{Attr: ptrAttr(AttrRef{RelName: "emp", AttrName: "dept"})},
				Op:    types.EqOp,
				Right: Operand{Attr: ptrAttr(AttrRef{RelName: "dept", AttrName: "id"})},
			},
		},
	})
	require.NoError(t, err)
	rows := drain(t, op)
	require.Len(t, rows, 6)
}

func TestAmbiguousAttrRejected(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("a", []sm.AttrDef{{Name: "x", Type: types.AttrInt, Length: 4}}))
	require.NoError(t, e.sm.CreateTable("b", []sm.AttrDef{{Name: "x", Type: types.AttrInt, Length: 4}}))

	_, err := e.Select(SelectRequest{
		Attrs:     []AttrSelector{{AttrName: "x"}},
		Relations: []string{"a", "b"},
	})
	require.ErrorIs(t, err, rc.QlAmbiguousAttr)
}

func TestDeleteRemovesRecordsAndIndexEntries(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("emp", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
	}))
	require.NoError(t, e.sm.CreateIndex("emp", "id"))
	for i := int32(0); i < 10; i++ {
		_, err := e.Insert("emp", []Value{intVal(i)})
		require.NoError(t, err)
	}

	n, err := e.Delete("emp", []CondSpec{
		{Left: Operand{Attr: ptrAttr(attrRef("id"))}, Op: types.LtOp, Right: Operand{Literal: ptrVal(intVal(5))}},
	})
	require.NoError(t, err)
	require.Equal(t, 5, n)

	op, err := e.Select(SelectRequest{Attrs: []AttrSelector{{AttrName: "*"}}, Relations: []string{"emp"}})
	require.NoError(t, err)
	require.Len(t, drain(t, op), 5)
}

func TestUpdateRewritesRecordAndIndex(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("emp", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "dept", Type: types.AttrInt, Length: 4},
	}))
	require.NoError(t, e.sm.CreateIndex("emp", "dept"))
	_, err := e.Insert("emp", []Value{intVal(1), intVal(0)})
	require.NoError(t, err)

	n, err := e.Update("emp", "dept", intVal(9), []CondSpec{
		{Left: Operand{Attr: ptrAttr(attrRef("id"))}, Op: types.EqOp, Right: Operand{Literal: ptrVal(intVal(1))}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	op, err := e.Select(SelectRequest{
		Attrs:     []AttrSelector{{AttrName: "dept"}},
		Relations: []string{"emp"},
	})
	require.NoError(t, err)
	rows := drain(t, op)
	require.Len(t, rows, 1)
	require.EqualValues(t, 9, binary.LittleEndian.Uint32(rows[0]))
}

func TestInsertRejectsSystemCatalog(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.Insert("relcat", []Value{})
	require.ErrorIs(t, err, rc.QlSystemCatalog)
}

func TestInsertRejectsWrongValueCount(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.sm.CreateTable("emp", []sm.AttrDef{{Name: "id", Type: types.AttrInt, Length: 4}}))
	_, err := e.Insert("emp", []Value{intVal(1), intVal(2)})
	require.ErrorIs(t, err, rc.QlInvalidValueCount)
}

func ptrAttr(a AttrRef) *AttrRef { return &a }
func ptrVal(v Value) *Value      { return &v }
