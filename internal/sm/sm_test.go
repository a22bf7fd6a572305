package sm

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/David-Chen31/RedBase-Development/internal/ix"
	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/rm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

func newTestCatalog(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	pfMgr := pf.NewManager(pf.Config{BufferFrames: 32})
	rmMgr := rm.NewManager(pfMgr, nil)
	ixMgr := ix.NewManager(pfMgr, nil)
	m := NewManager(rmMgr, ixMgr, dir, nil)
	require.NoError(t, m.Bootstrap())
	t.Cleanup(func() { m.Close() })
	return m
}

func TestCreateTableThenGetRelInfo(t *testing.T) {
	m := newTestCatalog(t)
	require.NoError(t, m.CreateTable("emp", []AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "dept", Type: types.AttrInt, Length: 4},
	}))

	infos, err := m.GetRelInfo("emp")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "id", infos[0].AttrName)
	require.EqualValues(t, 0, infos[0].Offset)
	require.Equal(t, "dept", infos[1].AttrName)
	require.EqualValues(t, 4, infos[1].Offset)

	info, err := m.GetAttrInfo("emp", "dept")
	require.NoError(t, err)
	require.EqualValues(t, -1, info.IndexNo)
}

func TestCreateTableRejectsDuplicateRel(t *testing.T) {
	m := newTestCatalog(t)
	require.NoError(t, m.CreateTable("emp", []AttrDef{{Name: "id", Type: types.AttrInt, Length: 4}}))
	err := m.CreateTable("emp", []AttrDef{{Name: "id", Type: types.AttrInt, Length: 4}})
	require.ErrorIs(t, err, rc.SmDuplicateRel)
}

func TestCreateTableRejectsSystemCatalogName(t *testing.T) {
	m := newTestCatalog(t)
	err := m.CreateTable("relcat", []AttrDef{{Name: "x", Type: types.AttrInt, Length: 4}})
	require.ErrorIs(t, err, rc.SmSystemCatalog)
}

func TestCreateIndexThenLookupIsIndexed(t *testing.T) {
	m := newTestCatalog(t)
	require.NoError(t, m.CreateTable("emp", []AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "dept", Type: types.AttrInt, Length: 4},
	}))
	require.NoError(t, m.CreateIndex("emp", "id"))

	info, err := m.GetAttrInfo("emp", "id")
	require.NoError(t, err)
	require.EqualValues(t, 0, info.IndexNo)

	err = m.CreateIndex("emp", "id")
	require.ErrorIs(t, err, rc.SmDuplicateIndex)
}

// TestCatalogConsistencyAfterDrop is spec.md §8 scenario 6.
func TestCatalogConsistencyAfterDrop(t *testing.T) {
	m := newTestCatalog(t)
	require.NoError(t, m.CreateTable("t", []AttrDef{
		{Name: "a", Type: types.AttrInt, Length: 4},
		{Name: "b", Type: types.AttrString, Length: 8},
	}))
	require.NoError(t, m.CreateIndex("t", "a"))
	require.NoError(t, m.DropTable("t"))

	_, err := m.GetRelInfo("t")
	require.ErrorIs(t, err, rc.SmRelNotFound)

	attrs, err := m.attrRowsForRel("t")
	require.NoError(t, err)
	require.Empty(t, attrs)
}

func TestGetRelInfoCacheInvalidatedOnDDL(t *testing.T) {
	m := newTestCatalog(t)
	require.NoError(t, m.CreateTable("emp", []AttrDef{{Name: "id", Type: types.AttrInt, Length: 4}}))

	first, err := m.GetRelInfo("emp")
	require.NoError(t, err)
	require.EqualValues(t, -1, first[0].IndexNo)

	require.NoError(t, m.CreateIndex("emp", "id"))

	second, err := m.GetRelInfo("emp")
	require.NoError(t, err)
	require.EqualValues(t, 0, second[0].IndexNo)
}

func TestSelfDescribingCatalog(t *testing.T) {
	m := newTestCatalog(t)
	infos, err := m.GetRelInfo(relcatName)
	require.NoError(t, err)
	require.Len(t, infos, 4)

	infos, err = m.GetRelInfo(attrcatName)
	require.NoError(t, err)
	require.Len(t, infos, 6)
}

// TestFuzzCreateTableRoundTrip creates a batch of tables with randomly
// generated, distinct names and attribute counts via gofakeit, then
// checks every table's GetRelInfo round-trips the attrs it was created
// with — the same round-trip property TestCreateTableThenGetRelInfo
// checks by hand, here against randomized fixture names the way
// RichardKnop-minisql's DataGen generates randomized fixtures for its
// own catalog/row tests.
func TestFuzzCreateTableRoundTrip(t *testing.T) {
	m := newTestCatalog(t)
	faker := gofakeit.New(99)

	type table struct {
		name  string
		attrs []AttrDef
	}
	var tables []table
	for i := 0; i < 10; i++ {
		relName := fmt.Sprintf("t%s", faker.LetterN(10))
		nAttrs := faker.IntRange(1, 5)
		attrs := make([]AttrDef, nAttrs)
		for j := range attrs {
			attrs[j] = AttrDef{Name: fmt.Sprintf("a%s", faker.LetterN(6)), Type: types.AttrInt, Length: 4}
		}
		require.NoError(t, m.CreateTable(relName, attrs))
		tables = append(tables, table{name: relName, attrs: attrs})
	}

	for _, tb := range tables {
		infos, err := m.GetRelInfo(tb.name)
		require.NoError(t, err)
		require.Len(t, infos, len(tb.attrs))
		for i, a := range tb.attrs {
			require.Equal(t, a.Name, infos[i].AttrName)
			require.EqualValues(t, i*4, infos[i].Offset)
		}
	}
}

func TestDropTableRemovesIndexFile(t *testing.T) {
	m := newTestCatalog(t)
	require.NoError(t, m.CreateTable("t", []AttrDef{{Name: "a", Type: types.AttrInt, Length: 4}}))
	require.NoError(t, m.CreateIndex("t", "a"))
	require.NoError(t, m.DropTable("t"))

	require.Error(t, m.ix.DestroyIndex(m.relPath(indexFileName("t", 0))))
}
