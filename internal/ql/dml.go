package ql

import (
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/sm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// Insert validates nValues == attrCount and per-position type equality,
// builds the tuple image, and calls RM.InsertRec; for every indexed
// attribute it also inserts (value@offset, rid) into the matching
// index. Partial failure after the RM insert is surfaced but not
// compensated, per spec.md §4.5/§9 — the returned RID is always the
// record actually inserted, even when a later index insert fails.
func (e *Executor) Insert(rel string, values []Value) (types.RID, error) {
	if sm.IsSystemCatalog(rel) {
		return types.RID{}, rc.QlSystemCatalog
	}
	schema, err := e.sm.GetRelInfo(rel)
	if err != nil {
		return types.RID{}, err
	}
	if len(values) != len(schema) {
		return types.RID{}, rc.QlInvalidValueCount
	}
	for i, v := range values {
		if v.Type != schema[i].AttrType {
			return types.RID{}, rc.QlIncompatibleTypes
		}
	}

	tuple := make([]byte, tupleLength(schema))
	for i, v := range values {
		info := schema[i]
		copy(tuple[info.Offset:info.Offset+info.AttrLength], v.encode(info.AttrLength))
	}

	fh, err := e.rm.OpenFile(e.sm.RelPath(rel))
	if err != nil {
		return types.RID{}, err
	}
	defer e.rm.CloseFile(fh)

	rid, err := fh.InsertRec(tuple)
	if err != nil {
		return types.RID{}, err
	}

	for _, info := range schema {
		if info.IndexNo == -1 {
			continue
		}
		ixh, err := e.ix.OpenIndex(e.sm.IndexPath(rel, info.IndexNo))
		if err != nil {
			return rid, err
		}
		key := tuple[info.Offset : info.Offset+info.AttrLength]
		insErr := ixh.InsertEntry(key, rid)
		closeErr := e.ix.CloseIndex(ixh)
		if insErr != nil {
			return rid, insErr
		}
		if closeErr != nil {
			return rid, closeErr
		}
	}
	return rid, nil
}

// Delete opens a Scan over rel, applies conditions as a Filter, and for
// each matched RID calls RM.DeleteRec and, for every indexed attribute,
// IX.DeleteEntry(oldValue, rid). Returns the number of records deleted.
func (e *Executor) Delete(rel string, conditions []CondSpec) (int, error) {
	if sm.IsSystemCatalog(rel) {
		return 0, rc.QlSystemCatalog
	}
	schema, err := e.sm.GetRelInfo(rel)
	if err != nil {
		return 0, err
	}
	resolved, err := resolveConditions(conditions, schema)
	if err != nil {
		return 0, err
	}

	fh, err := e.rm.OpenFile(e.sm.RelPath(rel))
	if err != nil {
		return 0, err
	}
	defer e.rm.CloseFile(fh)

	var op Operator = NewScan(fh, schema)
	if len(resolved) > 0 {
		op = NewFilter(op, resolved)
	}
	if err := op.Open(); err != nil {
		return 0, err
	}

	var n int
	for {
		data, rid, err := op.GetNext()
		if err == rc.QlEof {
			break
		}
		if err != nil {
			op.Close()
			return n, err
		}
		if err := fh.DeleteRec(rid); err != nil {
			op.Close()
			return n, err
		}
		for _, info := range schema {
			if info.IndexNo == -1 {
				continue
			}
			if err := e.deleteIndexEntry(rel, info, data[info.Offset:info.Offset+info.AttrLength], rid); err != nil {
				op.Close()
				return n, err
			}
		}
		n++
	}
	return n, op.Close()
}

// Update is Delete-like: it opens a Scan over rel, applies conditions
// as a Filter, and for each matched record overwrites updAttr's byte
// slice and calls RM.UpdateRec; if updAttr is indexed, the old key is
// deleted and the new one inserted. Returns the number of records
// updated.
func (e *Executor) Update(rel, updAttr string, value Value, conditions []CondSpec) (int, error) {
	if sm.IsSystemCatalog(rel) {
		return 0, rc.QlSystemCatalog
	}
	schema, err := e.sm.GetRelInfo(rel)
	if err != nil {
		return 0, err
	}
	attrIdx := -1
	for i, info := range schema {
		if info.AttrName == updAttr {
			attrIdx = i
			break
		}
	}
	if attrIdx < 0 {
		return 0, rc.QlAttrNotFound
	}
	info := schema[attrIdx]
	if value.Type != info.AttrType {
		return 0, rc.QlIncompatibleTypes
	}
	resolved, err := resolveConditions(conditions, schema)
	if err != nil {
		return 0, err
	}

	fh, err := e.rm.OpenFile(e.sm.RelPath(rel))
	if err != nil {
		return 0, err
	}
	defer e.rm.CloseFile(fh)

	var op Operator = NewScan(fh, schema)
	if len(resolved) > 0 {
		op = NewFilter(op, resolved)
	}
	if err := op.Open(); err != nil {
		return 0, err
	}

	newBytes := value.encode(info.AttrLength)
	var n int
	for {
		data, rid, err := op.GetNext()
		if err == rc.QlEof {
			break
		}
		if err != nil {
			op.Close()
			return n, err
		}

		oldKey := append([]byte{}, data[info.Offset:info.Offset+info.AttrLength]...)
		updated := append([]byte{}, data...)
		copy(updated[info.Offset:info.Offset+info.AttrLength], newBytes)

		if err := fh.UpdateRec(rid, updated); err != nil {
			op.Close()
			return n, err
		}

		if info.IndexNo != -1 {
			if err := e.reindexEntry(rel, info, oldKey, newBytes, rid); err != nil {
				op.Close()
				return n, err
			}
		}
		n++
	}
	return n, op.Close()
}

func (e *Executor) deleteIndexEntry(rel string, info types.DataAttrInfo, key []byte, rid types.RID) error {
	ixh, err := e.ix.OpenIndex(e.sm.IndexPath(rel, info.IndexNo))
	if err != nil {
		return err
	}
	delErr := ixh.DeleteEntry(key, rid)
	closeErr := e.ix.CloseIndex(ixh)
	if delErr != nil {
		return delErr
	}
	return closeErr
}

func (e *Executor) reindexEntry(rel string, info types.DataAttrInfo, oldKey, newKey []byte, rid types.RID) error {
	ixh, err := e.ix.OpenIndex(e.sm.IndexPath(rel, info.IndexNo))
	if err != nil {
		return err
	}
	delErr := ixh.DeleteEntry(oldKey, rid)
	insErr := ixh.InsertEntry(newKey, rid)
	closeErr := e.ix.CloseIndex(ixh)
	if delErr != nil {
		return delErr
	}
	if insErr != nil {
		return insErr
	}
	return closeErr
}
