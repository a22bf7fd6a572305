package ql

import "github.com/David-Chen31/RedBase-Development/internal/types"

// Filter evaluates every condition against each tuple its child yields,
// passing a tuple through only if all hold. Grounded on spec.md §4.5.
type Filter struct {
	child      Operator
	conditions []Condition
}

func NewFilter(child Operator, conditions []Condition) *Filter {
	return &Filter{child: child, conditions: conditions}
}

func (f *Filter) Open() error { return f.child.Open() }

func (f *Filter) GetNext() ([]byte, types.RID, error) {
	schema := f.child.Schema()
	for {
		data, rid, err := f.child.GetNext()
		if err != nil {
			return nil, types.RID{}, err
		}
		ok := true
		for _, c := range f.conditions {
			if !evalCondition(schema, data, c) {
				ok = false
				break
			}
		}
		if ok {
			return data, rid, nil
		}
	}
}

func (f *Filter) Close() error                 { return f.child.Close() }
func (f *Filter) Schema() []types.DataAttrInfo { return f.child.Schema() }
func (f *Filter) TupleLength() int32           { return f.child.TupleLength() }
