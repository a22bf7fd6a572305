package ql

import (
	"encoding/binary"
	"math"

	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// Value is a literal operand supplied by a caller: one position of an
// Insert's value list, an Update's new value, or a condition's
// right-hand constant.
type Value struct {
	Type  types.AttrType
	Int   int32
	Float float32
	Str   string
}

// encode renders v as exactly length fixed-width bytes, the form every
// lower layer stores and compares.
func (v Value) encode(length int32) []byte {
	buf := make([]byte, length)
	switch v.Type {
	case types.AttrInt:
		binary.LittleEndian.PutUint32(buf, uint32(v.Int))
	case types.AttrFloat:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v.Float))
	case types.AttrString:
		copy(buf, v.Str)
	}
	return buf
}
