package ql

import (
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// AttrRef names one attribute as it appears in a Select's attribute
// list or a condition operand. RelName is empty for an unqualified
// reference.
type AttrRef struct {
	RelName  string
	AttrName string
}

// resolveAttr finds the unique schema index ref names, rejecting both
// "not found" and "ambiguous" per spec.md §4.5's "same attrName in
// multiple rels without a relName prefix is rejected."
func resolveAttr(schema []types.DataAttrInfo, ref AttrRef) (int, error) {
	match := -1
	for i, info := range schema {
		if info.AttrName != ref.AttrName {
			continue
		}
		if ref.RelName != "" && info.RelName != ref.RelName {
			continue
		}
		if match >= 0 {
			return -1, rc.QlAmbiguousAttr
		}
		match = i
	}
	if match < 0 {
		return -1, rc.QlAttrNotFound
	}
	return match, nil
}
