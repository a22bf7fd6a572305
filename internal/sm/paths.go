package sm

// RelPath returns this database's on-disk path for a relation's heap
// file (or for relcat/attrcat themselves), for callers that must open
// the RM file directly — namely the executor.
func (m *Manager) RelPath(name string) string {
	return m.relPath(name)
}

// IndexPath returns this database's on-disk path for the index file
// backing one attribute's indexNo.
func (m *Manager) IndexPath(rel string, indexNo int32) string {
	return m.relPath(indexFileName(rel, indexNo))
}
