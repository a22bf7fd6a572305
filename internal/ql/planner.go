package ql

import (
	"sort"

	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/ix"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/rm"
	"github.com/David-Chen31/RedBase-Development/internal/sm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// Executor turns a Select request into an operator tree and drives
// Insert/Delete/Update against the catalog and the RM/IX layers
// beneath it. Grounded on ShubhamNegi4-DaemonDB/query_executor's
// per-operation split, reworked onto spec.md §4.5's iterator tree.
type Executor struct {
	sm     *sm.Manager
	rm     *rm.Manager
	ix     *ix.Manager
	logger *zap.Logger
}

func NewExecutor(smMgr *sm.Manager, rmMgr *rm.Manager, ixMgr *ix.Manager, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{sm: smMgr, rm: rmMgr, ix: ixMgr, logger: logger}
}

// AttrSelector is one entry of a Select's attribute list. AttrName "*"
// with an empty RelName, as the sole entry, means "every attribute of
// every relation" and is elided to a bare Project-less plan.
type AttrSelector struct {
	RelName  string
	AttrName string
}

// SelectRequest is the executor's entry point, matching spec.md §4.5's
// "Select(attrs, relations, conditions)".
type SelectRequest struct {
	Attrs      []AttrSelector
	Relations  []string
	Conditions []CondSpec
}

// Select plans and returns the root operator for req. The caller is
// responsible for Open/GetNext/Close.
func (e *Executor) Select(req SelectRequest) (Operator, error) {
	if len(req.Relations) == 0 {
		return nil, rc.QlInvalidRel
	}

	schemas := make(map[string][]types.DataAttrInfo, len(req.Relations))
	for _, rel := range req.Relations {
		if _, dup := schemas[rel]; dup {
			return nil, rc.QlDuplicateRel
		}
		schema, err := e.sm.GetRelInfo(rel)
		if err != nil {
			return nil, err
		}
		schemas[rel] = schema
	}

	localConds := map[string][]CondSpec{}
	var joinConds []CondSpec
	for _, c := range req.Conditions {
		rels, err := condRelations(c, req.Relations, schemas)
		if err != nil {
			return nil, err
		}
		switch len(rels) {
		case 2:
			joinConds = append(joinConds, c)
		case 1:
			localConds[rels[0]] = append(localConds[rels[0]], c)
		default:
			localConds[req.Relations[0]] = append(localConds[req.Relations[0]], c)
		}
	}

	var result Operator
	visible := make([]string, 0, len(req.Relations))
	for _, rel := range req.Relations {
		op, err := e.buildRelationOperator(rel, schemas[rel], localConds[rel])
		if err != nil {
			return nil, err
		}
		visible = append(visible, rel)

		if result == nil {
			result = op
			continue
		}
		theseConds, rest := splitByVisibility(joinConds, visible, req.Relations, schemas)
		joinConds = rest

		combined := concatSchema(result.Schema(), op.Schema())
		resolved, err := resolveConditions(theseConds, combined)
		if err != nil {
			return nil, err
		}
		result = NewNestedLoopJoin(result, op, resolved)
	}
	if len(joinConds) > 0 {
		return nil, rc.QlInvalidCondition
	}

	if len(req.Attrs) == 1 && req.Attrs[0].AttrName == "*" && req.Attrs[0].RelName == "" {
		return result, nil
	}
	refs := make([]AttrRef, len(req.Attrs))
	for i, a := range req.Attrs {
		refs[i] = AttrRef{RelName: a.RelName, AttrName: a.AttrName}
	}
	return NewProject(result, refs)
}

// buildRelationOperator builds the Scan (or IndexScan, when a single
// local condition substitutes one) plus any remaining Filter for one
// relation in the FROM list.
func (e *Executor) buildRelationOperator(rel string, schema []types.DataAttrInfo, conds []CondSpec) (Operator, error) {
	fh, err := e.rm.OpenFile(e.sm.RelPath(rel))
	if err != nil {
		return nil, err
	}

	info, op, val, rest, found := pickIndexCandidate(schema, conds)
	var base Operator
	if found {
		ixh, err := e.ix.OpenIndex(e.sm.IndexPath(rel, info.IndexNo))
		if err != nil {
			return nil, err
		}
		base = NewIndexScan(fh, ixh, schema, op, val.encode(info.AttrLength))
	} else {
		base = NewScan(fh, schema)
		rest = conds
	}

	resolved, err := resolveConditions(rest, schema)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return base, nil
	}
	return NewFilter(base, resolved), nil
}

// pickIndexCandidate reports the local condition in conds that compares
// an indexed attribute of schema against a literal using EQ/LT/LE/GT/GE,
// per spec.md §4.5 rule 2, when exactly one condition qualifies; with
// none or several it reports false. It returns the remaining conditions
// to apply as a Filter atop the resulting IndexScan.
func pickIndexCandidate(schema []types.DataAttrInfo, conds []CondSpec) (types.DataAttrInfo, types.CompOp, Value, []CondSpec, bool) {
	found := -1
	var info types.DataAttrInfo
	var op types.CompOp
	var val Value
	for i, c := range conds {
		if ci, co, cv, ok := asIndexEquality(schema, c); ok {
			if found >= 0 {
				return types.DataAttrInfo{}, 0, Value{}, conds, false
			}
			found, info, op, val = i, ci, co, cv
		}
	}
	if found < 0 {
		return types.DataAttrInfo{}, 0, Value{}, conds, false
	}
	rest := make([]CondSpec, 0, len(conds)-1)
	rest = append(rest, conds[:found]...)
	rest = append(rest, conds[found+1:]...)
	return info, op, val, rest, true
}

func asIndexEquality(schema []types.DataAttrInfo, c CondSpec) (types.DataAttrInfo, types.CompOp, Value, bool) {
	switch c.Op {
	case types.EqOp, types.LtOp, types.LeOp, types.GtOp, types.GeOp:
	default:
		return types.DataAttrInfo{}, 0, Value{}, false
	}
	if ref, val, ok := attrLiteral(c.Left, c.Right); ok {
		if idx, err := resolveAttr(schema, ref); err == nil && schema[idx].IndexNo != -1 {
			return schema[idx], c.Op, val, true
		}
	}
	if ref, val, ok := attrLiteral(c.Right, c.Left); ok {
		if idx, err := resolveAttr(schema, ref); err == nil && schema[idx].IndexNo != -1 {
			return schema[idx], flipOp(c.Op), val, true
		}
	}
	return types.DataAttrInfo{}, 0, Value{}, false
}

func attrLiteral(a, b Operand) (AttrRef, Value, bool) {
	if a.Attr != nil && b.Literal != nil {
		return *a.Attr, *b.Literal, true
	}
	return AttrRef{}, Value{}, false
}

func flipOp(op types.CompOp) types.CompOp {
	switch op {
	case types.LtOp:
		return types.GtOp
	case types.LeOp:
		return types.GeOp
	case types.GtOp:
		return types.LtOp
	case types.GeOp:
		return types.LeOp
	default:
		return op
	}
}

// condRelations classifies c by the distinct relations its non-literal
// operands belong to: 0 or 1 means local (attached to that relation, or
// to the first FROM relation if both sides are literals), 2 means join,
// more than 2 cannot occur since every Operand names at most one
// relation.
func condRelations(c CondSpec, relations []string, schemas map[string][]types.DataAttrInfo) ([]string, error) {
	lr, err := operandRel(c.Left, relations, schemas)
	if err != nil {
		return nil, err
	}
	rr, err := operandRel(c.Right, relations, schemas)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	if lr != "" {
		set[lr] = true
	}
	if rr != "" {
		set[rr] = true
	}
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Strings(out)
	return out, nil
}

func operandRel(op Operand, relations []string, schemas map[string][]types.DataAttrInfo) (string, error) {
	if op.Attr == nil {
		return "", nil
	}
	ref := *op.Attr
	if ref.RelName != "" {
		schema, ok := schemas[ref.RelName]
		if !ok {
			return "", rc.QlNoSuchTable
		}
		if _, err := resolveAttr(schema, ref); err != nil {
			return "", err
		}
		return ref.RelName, nil
	}

	found := ""
	for _, rel := range relations {
		if _, err := resolveAttr(schemas[rel], ref); err == nil {
			if found != "" {
				return "", rc.QlAmbiguousAttr
			}
			found = rel
		}
	}
	if found == "" {
		return "", rc.QlAttrNotFound
	}
	return found, nil
}

// splitByVisibility partitions conds into those whose relations are all
// already in visible, and the rest.
func splitByVisibility(conds []CondSpec, visible, all []string, schemas map[string][]types.DataAttrInfo) (these, rest []CondSpec) {
	visSet := make(map[string]bool, len(visible))
	for _, r := range visible {
		visSet[r] = true
	}
	for _, c := range conds {
		rels, err := condRelations(c, all, schemas)
		if err != nil {
			rest = append(rest, c)
			continue
		}
		ok := true
		for _, r := range rels {
			if !visSet[r] {
				ok = false
				break
			}
		}
		if ok {
			these = append(these, c)
		} else {
			rest = append(rest, c)
		}
	}
	return these, rest
}
