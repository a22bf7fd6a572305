package ix

import (
	"encoding/binary"
	"path/filepath"
	"sort"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

func newTestIX(t *testing.T) *Manager {
	t.Helper()
	pfMgr := pf.NewManager(pf.Config{BufferFrames: 16})
	return NewManager(pfMgr, nil)
}

func intKey(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func strKey(s string, length int32) []byte {
	buf := make([]byte, length)
	copy(buf, s)
	return buf
}

func TestInsertScanRoundTrip(t *testing.T) {
	m := newTestIX(t)
	name := filepath.Join(t.TempDir(), "idx")
	require.NoError(t, m.CreateIndex(name, types.AttrInt, 4))

	h, err := m.OpenIndex(name)
	require.NoError(t, err)

	for i := int32(1); i <= 50; i++ {
		require.NoError(t, h.InsertEntry(intKey(i), types.RID{PageNum: i, SlotNum: 0}))
	}

	scan, err := h.OpenScan(types.NoOp, nil)
	require.NoError(t, err)
	count := 0
	for {
		_, _, err := scan.GetNextEntry()
		if err == rc.IxEof {
			break
		}
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 50, count)
	require.NoError(t, scan.Close())
	require.NoError(t, m.CloseIndex(h))
}

func TestDeleteThenScanOmits(t *testing.T) {
	m := newTestIX(t)
	name := filepath.Join(t.TempDir(), "idx")
	require.NoError(t, m.CreateIndex(name, types.AttrInt, 4))
	h, err := m.OpenIndex(name)
	require.NoError(t, err)

	rid := types.RID{PageNum: 1, SlotNum: 0}
	require.NoError(t, h.InsertEntry(intKey(10), rid))
	require.NoError(t, h.DeleteEntry(intKey(10), rid))
	require.ErrorIs(t, h.DeleteEntry(intKey(10), rid), rc.IxEntryNotFound)

	scan, err := h.OpenScan(types.NoOp, nil)
	require.NoError(t, err)
	_, _, err = scan.GetNextEntry()
	require.ErrorIs(t, err, rc.IxEof)
}

// TestRootSplitsExactlyOnce checks the boundary condition described in
// spec.md §8: inserting up to maxLeafEntries keys never splits the
// root, and inserting the next one splits exactly once.
func TestRootSplitsExactlyOnce(t *testing.T) {
	m := newTestIX(t)
	name := filepath.Join(t.TempDir(), "idx")
	require.NoError(t, m.CreateIndex(name, types.AttrInt, 4))
	h, err := m.OpenIndex(name)
	require.NoError(t, err)

	max := maxLeafEntries(4)
	for i := int32(0); i < max; i++ {
		require.NoError(t, h.InsertEntry(intKey(i), types.RID{PageNum: i, SlotNum: 0}))
	}
	rootBeforeSplit := h.header.rootPage
	page, err := h.pf.GetPage(rootBeforeSplit)
	require.NoError(t, err)
	var hdr nodeHeader
	hdr.unmarshal(page.Payload[:nodeHeaderSize])
	require.True(t, hdr.isLeaf)
	require.NoError(t, page.Unpin())

	require.NoError(t, h.InsertEntry(intKey(max), types.RID{PageNum: max, SlotNum: 0}))
	require.NotEqual(t, rootBeforeSplit, h.header.rootPage)

	root, err := h.pf.GetPage(h.header.rootPage)
	require.NoError(t, err)
	hdr.unmarshal(root.Payload[:nodeHeaderSize])
	require.False(t, hdr.isLeaf)
	require.EqualValues(t, 1, hdr.numKeys)
	require.NoError(t, root.Unpin())
}

// TestBPlusTreeRange mirrors the RM heap-lifecycle scenario: insert RIDs
// for i in [1,999], delete the RIDs for even i, then scan GE 100 and
// expect exactly the odd RIDs in [101,999], ascending.
func TestBPlusTreeRange(t *testing.T) {
	m := newTestIX(t)
	name := filepath.Join(t.TempDir(), "idx")
	require.NoError(t, m.CreateIndex(name, types.AttrInt, 4))
	h, err := m.OpenIndex(name)
	require.NoError(t, err)

	rids := make(map[int32]types.RID)
	for i := int32(1); i <= 999; i++ {
		rid := types.RID{PageNum: i, SlotNum: 0}
		rids[i] = rid
		require.NoError(t, h.InsertEntry(intKey(i), rid))
	}
	for i := int32(2); i <= 999; i += 2 {
		require.NoError(t, h.DeleteEntry(intKey(i), rids[i]))
	}

	scan, err := h.OpenScan(types.GeOp, intKey(100))
	require.NoError(t, err)
	var got []int32
	for {
		key, _, err := scan.GetNextEntry()
		if err == rc.IxEof {
			break
		}
		require.NoError(t, err)
		got = append(got, int32(binary.LittleEndian.Uint32(key)))
	}
	require.NoError(t, scan.Close())

	var want []int32
	for i := int32(101); i <= 999; i += 2 {
		want = append(want, i)
	}
	require.Equal(t, want, got)
}

// TestStringOrderPreservesInsertionOrder checks spec.md §8's scenario 3:
// duplicate keys scan out ordered by RID, which for the RIDs used here is
// also their insertion order.
func TestStringOrderPreservesInsertionOrder(t *testing.T) {
	m := newTestIX(t)
	name := filepath.Join(t.TempDir(), "idx")
	require.NoError(t, m.CreateIndex(name, types.AttrString, 8))
	h, err := m.OpenIndex(name)
	require.NoError(t, err)

	words := []string{"apple", "ant", "apricot", "banana", "apple"}
	for i, w := range words {
		require.NoError(t, h.InsertEntry(strKey(w, 8), types.RID{PageNum: int32(i + 1), SlotNum: 0}))
	}

	scan, err := h.OpenScan(types.GeOp, strKey("ap", 8))
	require.NoError(t, err)
	var got []types.RID
	for {
		_, rid, err := scan.GetNextEntry()
		if err == rc.IxEof {
			break
		}
		require.NoError(t, err)
		got = append(got, rid)
	}

	want := []types.RID{
		{PageNum: 1, SlotNum: 0},
		{PageNum: 5, SlotNum: 0},
		{PageNum: 3, SlotNum: 0},
		{PageNum: 4, SlotNum: 0},
	}
	require.Equal(t, want, got)
}

// TestFuzzRangeScanMatchesSortedKeys inserts a batch of randomly
// generated, deduplicated keys via gofakeit, then checks that a GE
// scan from a random pivot returns exactly the keys >= pivot in
// ascending order — the same ascending/ge property TestBPlusTreeRange
// checks with a hand-picked fixture, here against an arbitrary fixture
// the way RichardKnop-minisql's DataGen generates randomized rows for
// its own B+tree/page tests.
func TestFuzzRangeScanMatchesSortedKeys(t *testing.T) {
	m := newTestIX(t)
	name := filepath.Join(t.TempDir(), "idx")
	require.NoError(t, m.CreateIndex(name, types.AttrInt, 4))
	h, err := m.OpenIndex(name)
	require.NoError(t, err)

	faker := gofakeit.New(42)
	seen := map[int32]bool{}
	var keys []int32
	for len(keys) < 300 {
		k := int32(faker.IntRange(0, 1_000_000))
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
		require.NoError(t, h.InsertEntry(intKey(k), types.RID{PageNum: k, SlotNum: 0}))
	}

	sorted := append([]int32{}, keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	pivot := sorted[len(sorted)/3]

	scan, err := h.OpenScan(types.GeOp, intKey(pivot))
	require.NoError(t, err)
	var got []int32
	for {
		key, _, err := scan.GetNextEntry()
		if err == rc.IxEof {
			break
		}
		require.NoError(t, err)
		got = append(got, int32(binary.LittleEndian.Uint32(key)))
	}
	require.NoError(t, scan.Close())

	var want []int32
	for _, k := range sorted {
		if k >= pivot {
			want = append(want, k)
		}
	}
	require.Equal(t, want, got)
}

func TestLeafSiblingInvariant(t *testing.T) {
	m := newTestIX(t)
	name := filepath.Join(t.TempDir(), "idx")
	require.NoError(t, m.CreateIndex(name, types.AttrInt, 4))
	h, err := m.OpenIndex(name)
	require.NoError(t, err)

	for i := int32(0); i < 500; i++ {
		require.NoError(t, h.InsertEntry(intKey(i), types.RID{PageNum: i, SlotNum: 0}))
	}

	leaf, err := h.leftmostLeaf(h.header.rootPage)
	require.NoError(t, err)
	for leaf != noPage {
		page, err := h.pf.GetPage(leaf)
		require.NoError(t, err)
		var hdr nodeHeader
		hdr.unmarshal(page.Payload[:nodeHeaderSize])
		entries := readLeafEntries(page.Payload, hdr, 4)
		require.NoError(t, page.Unpin())

		if hdr.right != noPage && len(entries) > 0 {
			rpage, err := h.pf.GetPage(hdr.right)
			require.NoError(t, err)
			var rhdr nodeHeader
			rhdr.unmarshal(rpage.Payload[:nodeHeaderSize])
			require.Equal(t, leaf, rhdr.left)
			rentries := readLeafEntries(rpage.Payload, rhdr, 4)
			require.NoError(t, rpage.Unpin())
			if len(rentries) > 0 {
				maxKey := int32(binary.LittleEndian.Uint32(entries[len(entries)-1].key))
				minKey := int32(binary.LittleEndian.Uint32(rentries[0].key))
				require.LessOrEqual(t, maxKey, minKey)
			}
		}
		leaf = hdr.right
	}
}
