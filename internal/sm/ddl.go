package sm

import (
	"strconv"

	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/rm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// AttrDef is one attribute declaration passed to CreateTable.
type AttrDef struct {
	Name   string
	Type   types.AttrType
	Length int32
}

// CreateTable validates rel and attrs per spec.md §4.4, creates the RM
// heap file backing the relation, and inserts the describing relcat/
// attrcat rows. On any failure after the RM file is created, the
// catalog rows already inserted are rolled back by explicit reverse
// deletions.
func (m *Manager) CreateTable(rel string, attrs []AttrDef) error {
	if isCatalogName(rel) {
		return rc.SmSystemCatalog
	}
	if !types.IsValidIdentifier(rel) {
		return rc.SmBadRelName
	}
	if len(attrs) == 0 || len(attrs) > types.MaxAttrs {
		return rc.SmTooManyAttrs
	}
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if !types.IsValidIdentifier(a.Name) {
			return rc.SmBadAttrName
		}
		if seen[a.Name] {
			return rc.SmDuplicateAttr
		}
		seen[a.Name] = true
		switch a.Type {
		case types.AttrInt, types.AttrFloat:
			if a.Length != 4 {
				return rc.SmBadAttrLength
			}
		case types.AttrString:
			if a.Length < 1 || a.Length > types.MaxStringLen {
				return rc.SmBadAttrLength
			}
		default:
			return rc.SmBadAttrType
		}
	}
	if exists, err := m.relExists(rel); err != nil {
		return err
	} else if exists {
		return rc.SmDuplicateRel
	}

	var tupleLength int32
	offsets := make([]int32, len(attrs))
	for i, a := range attrs {
		offsets[i] = tupleLength
		tupleLength += a.Length
	}

	if err := m.rm.CreateFile(m.relPath(rel), tupleLength); err != nil {
		return err
	}

	relRID, err := m.relcat.InsertRec(relRow{relName: rel, tupleLength: tupleLength, attrCount: int32(len(attrs)), indexCount: 0}.marshal())
	if err != nil {
		m.rm.DestroyFile(m.relPath(rel))
		return err
	}

	var attrRIDs []types.RID
	rollback := func() {
		for _, rid := range attrRIDs {
			m.attrcat.DeleteRec(rid)
		}
		m.relcat.DeleteRec(relRID)
		m.rm.DestroyFile(m.relPath(rel))
	}

	for i, a := range attrs {
		rid, err := m.attrcat.InsertRec(attrRow{
			relName: rel, attrName: a.Name, offset: offsets[i],
			attrType: a.Type, attrLength: a.Length, indexNo: -1,
		}.marshal())
		if err != nil {
			rollback()
			return err
		}
		attrRIDs = append(attrRIDs, rid)
	}

	m.invalidate(rel)
	return nil
}

// DropTable rejects catalog names, drops every index still open on the
// relation, destroys its RM file, and removes its relcat/attrcat rows.
func (m *Manager) DropTable(rel string) error {
	if isCatalogName(rel) {
		return rc.SmSystemCatalog
	}
	attrs, err := m.attrRowsForRel(rel)
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		return rc.SmRelNotFound
	}

	for _, a := range attrs {
		if a.attrRow.indexNo != -1 {
			if err := m.ix.DestroyIndex(m.relPath(indexFileName(rel, a.attrRow.indexNo))); err != nil {
				return err
			}
		}
	}
	if err := m.rm.DestroyFile(m.relPath(rel)); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := m.attrcat.DeleteRec(a.rid); err != nil {
			return err
		}
	}

	relRID, err := m.findRelRID(rel)
	if err != nil {
		return err
	}
	if err := m.relcat.DeleteRec(relRID); err != nil {
		return err
	}

	m.invalidate(rel)
	return nil
}

// CreateIndex builds a new B+tree index over rel.attrName, choosing the
// next free indexNo for the relation and populating it from every live
// record of the relation's RM file.
func (m *Manager) CreateIndex(rel, attrName string) error {
	if isCatalogName(rel) {
		return rc.SmSystemCatalog
	}
	attrs, err := m.attrRowsForRel(rel)
	if err != nil {
		return err
	}
	var target *attrRowWithRID
	maxIndexNo := int32(-1)
	for i := range attrs {
		if attrs[i].attrRow.relName == rel && attrs[i].attrRow.attrName == attrName {
			target = &attrs[i]
		}
		if attrs[i].attrRow.indexNo > maxIndexNo {
			maxIndexNo = attrs[i].attrRow.indexNo
		}
	}
	if target == nil {
		return rc.SmAttrNotFound
	}
	if target.attrRow.indexNo != -1 {
		return rc.SmDuplicateIndex
	}
	indexNo := maxIndexNo + 1
	indexPath := m.relPath(indexFileName(rel, indexNo))

	if err := m.ix.CreateIndex(indexPath, target.attrRow.attrType, target.attrRow.attrLength); err != nil {
		return err
	}

	relFH, err := m.rm.OpenFile(m.relPath(rel))
	if err != nil {
		m.ix.DestroyIndex(indexPath)
		return err
	}
	ixHandle, err := m.ix.OpenIndex(indexPath)
	if err != nil {
		m.rm.CloseFile(relFH)
		m.ix.DestroyIndex(indexPath)
		return err
	}

	scan, err := rm.OpenScan(relFH, target.attrRow.attrType, target.attrRow.attrLength, target.attrRow.offset, types.NoOp, nil)
	if err != nil {
		m.ix.CloseIndex(ixHandle)
		m.rm.CloseFile(relFH)
		m.ix.DestroyIndex(indexPath)
		return err
	}
	for {
		rec, err := scan.GetNextRec()
		if err == rc.RmEof {
			break
		}
		if err != nil {
			scan.Close()
			m.ix.CloseIndex(ixHandle)
			m.rm.CloseFile(relFH)
			m.ix.DestroyIndex(indexPath)
			return err
		}
		key := rec.Data[target.attrRow.offset : target.attrRow.offset+target.attrRow.attrLength]
		if err := ixHandle.InsertEntry(key, rec.RID); err != nil {
			scan.Close()
			m.ix.CloseIndex(ixHandle)
			m.rm.CloseFile(relFH)
			m.ix.DestroyIndex(indexPath)
			return err
		}
	}
	scan.Close()
	if err := m.ix.CloseIndex(ixHandle); err != nil {
		m.rm.CloseFile(relFH)
		return err
	}
	if err := m.rm.CloseFile(relFH); err != nil {
		return err
	}

	target.attrRow.indexNo = indexNo
	if err := m.attrcat.UpdateRec(target.rid, target.attrRow.marshal()); err != nil {
		return err
	}
	if err := m.bumpIndexCount(rel, 1); err != nil {
		return err
	}

	m.invalidate(rel)
	return nil
}

// DropIndex destroys the IX file for rel.attrName and clears the
// attrcat row's indexNo.
func (m *Manager) DropIndex(rel, attrName string) error {
	if isCatalogName(rel) {
		return rc.SmSystemCatalog
	}
	attrs, err := m.attrRowsForRel(rel)
	if err != nil {
		return err
	}
	for i := range attrs {
		if attrs[i].attrRow.attrName != attrName {
			continue
		}
		if attrs[i].attrRow.indexNo == -1 {
			return rc.SmIndexNotFound
		}
		indexNo := attrs[i].attrRow.indexNo
		if err := m.ix.DestroyIndex(m.relPath(indexFileName(rel, indexNo))); err != nil {
			return err
		}
		attrs[i].attrRow.indexNo = -1
		if err := m.attrcat.UpdateRec(attrs[i].rid, attrs[i].attrRow.marshal()); err != nil {
			return err
		}
		if err := m.bumpIndexCount(rel, -1); err != nil {
			return err
		}
		m.invalidate(rel)
		return nil
	}
	return rc.SmAttrNotFound
}

// indexFileName is the on-disk paged file name for (rel, indexNo), per
// spec.md §3's "Index file naming".
func indexFileName(rel string, indexNo int32) string {
	return rel + "." + strconv.Itoa(int(indexNo))
}

func (m *Manager) bumpIndexCount(rel string, delta int32) error {
	rid, err := m.findRelRID(rel)
	if err != nil {
		return err
	}
	rec, err := m.relcat.GetRec(rid)
	if err != nil {
		return err
	}
	var row relRow
	row.unmarshal(rec.Data)
	row.indexCount += delta
	return m.relcat.UpdateRec(rid, row.marshal())
}

func (m *Manager) relExists(rel string) (bool, error) {
	_, err := m.findRelRID(rel)
	if err == rc.RmRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) findRelRID(rel string) (types.RID, error) {
	scan, err := rm.OpenScan(m.relcat, types.AttrString, types.MaxNameLen, 0, types.EqOp, nameKey(rel))
	if err != nil {
		return types.RID{}, err
	}
	defer scan.Close()
	rec, err := scan.GetNextRec()
	if err == rc.RmEof {
		return types.RID{}, rc.RmRecordNotFound
	}
	if err != nil {
		return types.RID{}, err
	}
	return rec.RID, nil
}

type attrRowWithRID struct {
	attrRow attrRow
	rid     types.RID
}

func (m *Manager) attrRowsForRel(rel string) ([]attrRowWithRID, error) {
	scan, err := rm.OpenScan(m.attrcat, types.AttrString, types.MaxNameLen, 0, types.EqOp, nameKey(rel))
	if err != nil {
		return nil, err
	}
	defer scan.Close()

	var out []attrRowWithRID
	for {
		rec, err := scan.GetNextRec()
		if err == rc.RmEof {
			break
		}
		if err != nil {
			return nil, err
		}
		var row attrRow
		row.unmarshal(rec.Data)
		out = append(out, attrRowWithRID{attrRow: row, rid: rec.RID})
	}
	return out, nil
}

func nameKey(name string) []byte {
	buf := make([]byte, types.MaxNameLen)
	copy(buf, name)
	return buf
}
