package ql

import (
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// Operand is one side of a CondSpec: exactly one of Attr or Literal is
// set — spec.md §4.5's "(lhsAttr op rhsAttr) or (lhsAttr op rhsValue)".
type Operand struct {
	Attr    *AttrRef
	Literal *Value
}

// CondSpec is a planner-facing condition before its attribute operands
// are resolved against a concrete schema.
type CondSpec struct {
	Left  Operand
	Op    types.CompOp
	Right Operand
}

// ConditionSide is a CondSpec operand resolved against one schema:
// either an index into that schema, or literal bytes already encoded
// to the comparison's fixed length.
type ConditionSide struct {
	isAttr    bool
	attrIndex int
	bytes     []byte
}

// Condition is a CondSpec fully resolved against one schema, ready for
// repeated evaluation by Filter or NestedLoopJoin.
type Condition struct {
	Left   ConditionSide
	Op     types.CompOp
	Right  ConditionSide
	Type   types.AttrType
	Length int32
}

func operandType(schema []types.DataAttrInfo, op Operand) (types.AttrType, int32, error) {
	if op.Attr != nil {
		idx, err := resolveAttr(schema, *op.Attr)
		if err != nil {
			return 0, 0, err
		}
		info := schema[idx]
		return info.AttrType, info.AttrLength, nil
	}
	return op.Literal.Type, 0, nil
}

// resolveConditions resolves every CondSpec against schema, rejecting
// cross-type comparisons ("both sides must resolve to the same type").
// Strings compare over the shorter attribute length when both sides are
// attributes; a literal paired with an attribute is encoded to that
// attribute's length.
func resolveConditions(specs []CondSpec, schema []types.DataAttrInfo) ([]Condition, error) {
	out := make([]Condition, 0, len(specs))
	for _, c := range specs {
		lt, ll, err := operandType(schema, c.Left)
		if err != nil {
			return nil, err
		}
		rt, rl, err := operandType(schema, c.Right)
		if err != nil {
			return nil, err
		}
		if lt != rt {
			return nil, rc.QlIncompatibleTypes
		}

		length := ll
		switch {
		case c.Left.Attr == nil:
			length = rl
		case c.Right.Attr != nil && rl < length:
			length = rl
		}

		left, err := resolveSide(c.Left, schema, length)
		if err != nil {
			return nil, err
		}
		right, err := resolveSide(c.Right, schema, length)
		if err != nil {
			return nil, err
		}
		out = append(out, Condition{Left: left, Op: c.Op, Right: right, Type: lt, Length: length})
	}
	return out, nil
}

func resolveSide(op Operand, schema []types.DataAttrInfo, length int32) (ConditionSide, error) {
	if op.Attr != nil {
		idx, err := resolveAttr(schema, *op.Attr)
		if err != nil {
			return ConditionSide{}, err
		}
		return ConditionSide{isAttr: true, attrIndex: idx}, nil
	}
	return ConditionSide{bytes: op.Literal.encode(length)}, nil
}

func sideBytes(schema []types.DataAttrInfo, data []byte, side ConditionSide) []byte {
	if side.isAttr {
		info := schema[side.attrIndex]
		return data[info.Offset : info.Offset+info.AttrLength]
	}
	return side.bytes
}

func evalCondition(schema []types.DataAttrInfo, data []byte, c Condition) bool {
	lb := sideBytes(schema, data, c.Left)
	rb := sideBytes(schema, data, c.Right)
	cmp := types.Compare(c.Type, lb, rb, int(c.Length))
	return types.Satisfies(c.Op, cmp)
}
