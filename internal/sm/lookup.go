package sm

import (
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// GetRelInfo returns every attribute of rel, in catalog order, reading
// through a ristretto cache keyed by relation name (invalidated by
// every CreateTable/DropTable/CreateIndex/DropIndex).
func (m *Manager) GetRelInfo(rel string) ([]types.DataAttrInfo, error) {
	if m.cache != nil {
		if cached, ok := m.cache.Get(rel); ok {
			return cached, nil
		}
	}

	attrs, err := m.attrRowsForRel(rel)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, rc.SmRelNotFound
	}

	infos := make([]types.DataAttrInfo, len(attrs))
	for i, a := range attrs {
		infos[i] = a.attrRow.info()
	}

	if m.cache != nil {
		m.cache.Set(rel, infos, int64(len(infos)))
	}
	return infos, nil
}

// GetAttrInfo returns one attribute's catalog row.
func (m *Manager) GetAttrInfo(rel, attrName string) (types.DataAttrInfo, error) {
	infos, err := m.GetRelInfo(rel)
	if err != nil {
		return types.DataAttrInfo{}, err
	}
	for _, info := range infos {
		if info.AttrName == attrName {
			return info, nil
		}
	}
	return types.DataAttrInfo{}, rc.SmAttrNotFound
}
