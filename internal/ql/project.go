package ql

import "github.com/David-Chen31/RedBase-Development/internal/types"

// Project rewrites tuples to a projected byte layout: for each selected
// attribute, it copies attrLength bytes from the child's offset to the
// next output offset, renumbering the output schema. The planner elides
// Project when the single selected attribute is "*".
type Project struct {
	child  Operator
	schema []types.DataAttrInfo
	srcIdx []int
}

func NewProject(child Operator, attrs []AttrRef) (*Project, error) {
	childSchema := child.Schema()
	schema := make([]types.DataAttrInfo, len(attrs))
	srcIdx := make([]int, len(attrs))

	var offset int32
	for i, ref := range attrs {
		idx, err := resolveAttr(childSchema, ref)
		if err != nil {
			return nil, err
		}
		info := childSchema[idx]
		info.Offset = offset
		offset += info.AttrLength
		schema[i] = info
		srcIdx[i] = idx
	}
	return &Project{child: child, schema: schema, srcIdx: srcIdx}, nil
}

func (p *Project) Open() error { return p.child.Open() }

func (p *Project) GetNext() ([]byte, types.RID, error) {
	data, rid, err := p.child.GetNext()
	if err != nil {
		return nil, types.RID{}, err
	}
	childSchema := p.child.Schema()
	out := make([]byte, tupleLength(p.schema))
	var off int32
	for _, idx := range p.srcIdx {
		info := childSchema[idx]
		copy(out[off:off+info.AttrLength], data[info.Offset:info.Offset+info.AttrLength])
		off += info.AttrLength
	}
	return out, rid, nil
}

func (p *Project) Close() error                 { return p.child.Close() }
func (p *Project) Schema() []types.DataAttrInfo { return p.schema }
func (p *Project) TupleLength() int32           { return tupleLength(p.schema) }
