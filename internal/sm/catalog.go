// Package sm implements the system catalog: relcat/attrcat, the two
// self-describing RM heap files that back CreateTable/DropTable/
// CreateIndex/DropIndex and the executor's GetRelInfo/GetAttrInfo
// lookup API. Grounded on
// ShubhamNegi4-DaemonDB/storage_engine/catalog for the manager-struct
// shape (NewCatalogManager, validated mutations, rollback on failure),
// reworked from JSON-schema-file persistence onto spec.md §4.4's
// RM-backed relcat/attrcat design.
package sm

import (
	"encoding/binary"
	"path/filepath"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/ix"
	"github.com/David-Chen31/RedBase-Development/internal/rm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

const (
	relcatName  = "relcat"
	attrcatName = "attrcat"

	// relcat row: {relName[24], tupleLength, attrCount, indexCount}.
	relRecordSize = types.MaxNameLen + 4 + 4 + 4

	// attrcat row: {relName[24], attrName[24], offset, attrType,
	// attrLength, indexNo}.
	attrRecordSize = types.MaxNameLen + types.MaxNameLen + 4 + 4 + 4 + 4
)

type relRow struct {
	relName     string
	tupleLength int32
	attrCount   int32
	indexCount  int32
}

func (r relRow) marshal() []byte {
	buf := make([]byte, relRecordSize)
	putName(buf[0:types.MaxNameLen], r.relName)
	off := types.MaxNameLen
	binary.LittleEndian.PutUint32(buf[off:], uint32(r.tupleLength))
	binary.LittleEndian.PutUint32(buf[off+4:], uint32(r.attrCount))
	binary.LittleEndian.PutUint32(buf[off+8:], uint32(r.indexCount))
	return buf
}

func (r *relRow) unmarshal(buf []byte) {
	r.relName = getName(buf[0:types.MaxNameLen])
	off := types.MaxNameLen
	r.tupleLength = int32(binary.LittleEndian.Uint32(buf[off:]))
	r.attrCount = int32(binary.LittleEndian.Uint32(buf[off+4:]))
	r.indexCount = int32(binary.LittleEndian.Uint32(buf[off+8:]))
}

type attrRow struct {
	relName    string
	attrName   string
	offset     int32
	attrType   types.AttrType
	attrLength int32
	indexNo    int32
}

func (a attrRow) marshal() []byte {
	buf := make([]byte, attrRecordSize)
	putName(buf[0:types.MaxNameLen], a.relName)
	putName(buf[types.MaxNameLen:2*types.MaxNameLen], a.attrName)
	off := 2 * types.MaxNameLen
	binary.LittleEndian.PutUint32(buf[off:], uint32(a.offset))
	binary.LittleEndian.PutUint32(buf[off+4:], uint32(a.attrType))
	binary.LittleEndian.PutUint32(buf[off+8:], uint32(a.attrLength))
	binary.LittleEndian.PutUint32(buf[off+12:], uint32(a.indexNo))
	return buf
}

func (a *attrRow) unmarshal(buf []byte) {
	a.relName = getName(buf[0:types.MaxNameLen])
	a.attrName = getName(buf[types.MaxNameLen : 2*types.MaxNameLen])
	off := 2 * types.MaxNameLen
	a.offset = int32(binary.LittleEndian.Uint32(buf[off:]))
	a.attrType = types.AttrType(binary.LittleEndian.Uint32(buf[off+4:]))
	a.attrLength = int32(binary.LittleEndian.Uint32(buf[off+8:]))
	a.indexNo = int32(binary.LittleEndian.Uint32(buf[off+12:]))
}

func (a attrRow) info() types.DataAttrInfo {
	return types.DataAttrInfo{
		RelName:    a.relName,
		AttrName:   a.attrName,
		Offset:     a.offset,
		AttrType:   a.attrType,
		AttrLength: a.attrLength,
		IndexNo:    a.indexNo,
	}
}

func putName(dst []byte, name string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
}

func getName(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	return string(src[:n])
}

// Manager is the catalog: relcat/attrcat RM files, plus a read-through
// cache of GetRelInfo/GetAttrInfo lookups keyed by relation name.
type Manager struct {
	rm      *rm.Manager
	ix      *ix.Manager
	dbDir   string
	relcat  *rm.FileHandle
	attrcat *rm.FileHandle
	cache   *ristretto.Cache[string, []types.DataAttrInfo]
	logger  *zap.Logger
}

// NewManager wires a catalog on top of already-constructed RM and IX
// managers. dbDir is the one filesystem directory holding relcat,
// attrcat, every user table's heap file, and its index files — spec.md
// §6's "Database directory."
func NewManager(rmMgr *rm.Manager, ixMgr *ix.Manager, dbDir string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []types.DataAttrInfo]{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		cache = nil
	}
	return &Manager{rm: rmMgr, ix: ixMgr, dbDir: dbDir, cache: cache, logger: logger}
}

// relPath returns the on-disk path for a relation's heap file or
// relcat/attrcat, rooted at the manager's database directory.
func (m *Manager) relPath(name string) string {
	return filepath.Join(m.dbDir, name)
}

// Bootstrap creates relcat and attrcat for a brand-new database and
// seeds both files with the rows that describe their own schema,
// per spec.md §4.4: "the catalog describes itself."
func (m *Manager) Bootstrap() error {
	if err := m.rm.CreateFile(m.relPath(relcatName), relRecordSize); err != nil {
		return err
	}
	if err := m.rm.CreateFile(m.relPath(attrcatName), attrRecordSize); err != nil {
		m.rm.DestroyFile(m.relPath(relcatName))
		return err
	}

	relcat, err := m.rm.OpenFile(m.relPath(relcatName))
	if err != nil {
		m.rm.DestroyFile(m.relPath(relcatName))
		m.rm.DestroyFile(m.relPath(attrcatName))
		return err
	}
	attrcat, err := m.rm.OpenFile(m.relPath(attrcatName))
	if err != nil {
		m.rm.CloseFile(relcat)
		m.rm.DestroyFile(m.relPath(relcatName))
		m.rm.DestroyFile(m.relPath(attrcatName))
		return err
	}
	m.relcat, m.attrcat = relcat, attrcat

	selfRel := []relRow{
		{relName: relcatName, tupleLength: relRecordSize, attrCount: 4, indexCount: 0},
		{relName: attrcatName, tupleLength: attrRecordSize, attrCount: 6, indexCount: 0},
	}
	for _, r := range selfRel {
		if _, err := m.relcat.InsertRec(r.marshal()); err != nil {
			return err
		}
	}

	selfAttrs := []attrRow{
		{relName: relcatName, attrName: "relName", offset: 0, attrType: types.AttrString, attrLength: types.MaxNameLen, indexNo: -1},
		{relName: relcatName, attrName: "tupleLength", offset: types.MaxNameLen, attrType: types.AttrInt, attrLength: 4, indexNo: -1},
		{relName: relcatName, attrName: "attrCount", offset: types.MaxNameLen + 4, attrType: types.AttrInt, attrLength: 4, indexNo: -1},
		{relName: relcatName, attrName: "indexCount", offset: types.MaxNameLen + 8, attrType: types.AttrInt, attrLength: 4, indexNo: -1},
		{relName: attrcatName, attrName: "relName", offset: 0, attrType: types.AttrString, attrLength: types.MaxNameLen, indexNo: -1},
		{relName: attrcatName, attrName: "attrName", offset: types.MaxNameLen, attrType: types.AttrString, attrLength: types.MaxNameLen, indexNo: -1},
		{relName: attrcatName, attrName: "offset", offset: 2 * types.MaxNameLen, attrType: types.AttrInt, attrLength: 4, indexNo: -1},
		{relName: attrcatName, attrName: "attrType", offset: 2*types.MaxNameLen + 4, attrType: types.AttrInt, attrLength: 4, indexNo: -1},
		{relName: attrcatName, attrName: "attrLength", offset: 2*types.MaxNameLen + 8, attrType: types.AttrInt, attrLength: 4, indexNo: -1},
		{relName: attrcatName, attrName: "indexNo", offset: 2*types.MaxNameLen + 12, attrType: types.AttrInt, attrLength: 4, indexNo: -1},
	}
	for _, a := range selfAttrs {
		if _, err := m.attrcat.InsertRec(a.marshal()); err != nil {
			return err
		}
	}
	return nil
}

// Open opens an existing database's relcat/attrcat files.
func (m *Manager) Open() error {
	relcat, err := m.rm.OpenFile(m.relPath(relcatName))
	if err != nil {
		return err
	}
	attrcat, err := m.rm.OpenFile(m.relPath(attrcatName))
	if err != nil {
		m.rm.CloseFile(relcat)
		return err
	}
	m.relcat, m.attrcat = relcat, attrcat
	return nil
}

// Close flushes and closes relcat/attrcat.
func (m *Manager) Close() error {
	if err := m.rm.CloseFile(m.relcat); err != nil {
		return err
	}
	return m.rm.CloseFile(m.attrcat)
}

// isCatalogName reports whether name is relcat or attrcat.
func isCatalogName(name string) bool {
	return name == relcatName || name == attrcatName
}

// IsSystemCatalog reports whether name is relcat or attrcat, for callers
// outside this package (the executor's "SystemCatalog" DML guard).
func IsSystemCatalog(name string) bool {
	return isCatalogName(name)
}

func (m *Manager) invalidate(rel string) {
	if m.cache != nil {
		m.cache.Del(rel)
	}
}
