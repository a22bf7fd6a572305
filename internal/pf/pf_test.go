package pf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/David-Chen31/RedBase-Development/internal/rc"
)

func tempFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "redbase_test.pf")
}

func newTestManager(t *testing.T, frames int) *Manager {
	t.Helper()
	return NewManager(Config{BufferFrames: frames})
}

func TestCreateOpenCloseRoundTrip(t *testing.T) {
	m := newTestManager(t, 4)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))

	fh, err := m.OpenFile(name)
	require.NoError(t, err)
	require.EqualValues(t, 0, fh.NumPages())

	page, err := fh.AllocatePage()
	require.NoError(t, err)
	copy(page.Payload, []byte("hello"))
	require.NoError(t, page.MarkDirty())
	require.NoError(t, page.Unpin())

	require.NoError(t, m.CloseFile(fh))

	fh2, err := m.OpenFile(name)
	require.NoError(t, err)
	require.EqualValues(t, 1, fh2.NumPages())

	p0, err := fh2.GetPage(0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), p0.Payload[:5])
	require.NoError(t, p0.Unpin())
	require.NoError(t, m.CloseFile(fh2))
}

func TestUnpinOnZeroPinFails(t *testing.T) {
	m := newTestManager(t, 4)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))
	fh, err := m.OpenFile(name)
	require.NoError(t, err)

	page, err := fh.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, page.Unpin())
	require.ErrorIs(t, page.Unpin(), rc.PfPageUnpinned)
}

func TestMarkDirtyOnAbsentPageFails(t *testing.T) {
	m := newTestManager(t, 4)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))
	fh, err := m.OpenFile(name)
	require.NoError(t, err)
	require.ErrorIs(t, fh.MarkDirty(0), rc.PfPageNotInBuf)
}

func TestGetPageOutOfRangeFails(t *testing.T) {
	m := newTestManager(t, 4)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))
	fh, err := m.OpenFile(name)
	require.NoError(t, err)
	_, err = fh.GetPage(0)
	require.ErrorIs(t, err, rc.PfInvalidPage)
}

func TestBufferPoolOfSizeOneStillCompletesAScan(t *testing.T) {
	m := newTestManager(t, 1)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))
	fh, err := m.OpenFile(name)
	require.NoError(t, err)

	const numPages = 10
	for i := 0; i < numPages; i++ {
		page, err := fh.AllocatePage()
		require.NoError(t, err)
		page.Payload[0] = byte(i)
		require.NoError(t, page.MarkDirty())
		require.NoError(t, page.Unpin())
	}

	for i := 0; i < numPages; i++ {
		page, err := fh.GetPage(PageNum(i))
		require.NoError(t, err)
		require.Equal(t, byte(i), page.Payload[0])
		require.NoError(t, page.Unpin())
	}
}

func TestAllFramesPinnedFailsWithNoBuffer(t *testing.T) {
	m := newTestManager(t, 2)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))
	fh, err := m.OpenFile(name)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		page, err := fh.AllocatePage()
		require.NoError(t, err)
		require.NoError(t, page.Unpin())
	}

	p0, err := fh.GetPage(0)
	require.NoError(t, err)
	p1, err := fh.GetPage(1)
	require.NoError(t, err)

	name2 := tempFile(t)
	require.NoError(t, m.CreateFile(name2))
	fh2, err := m.OpenFile(name2)
	require.NoError(t, err)
	_, err = fh2.AllocatePage()
	require.ErrorIs(t, err, rc.PfNoBuffer)

	require.NoError(t, p0.Unpin())
	require.NoError(t, p1.Unpin())
}

func TestDisposeThenReallocateReusesPage(t *testing.T) {
	m := newTestManager(t, 4)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))
	fh, err := m.OpenFile(name)
	require.NoError(t, err)

	p0, err := fh.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, p0.Unpin())
	p1, err := fh.AllocatePage()
	require.NoError(t, err)
	require.NoError(t, p1.Unpin())

	require.NoError(t, fh.DisposePage(0))

	p2, err := fh.AllocatePage()
	require.NoError(t, err)
	require.EqualValues(t, 0, p2.Num)
	require.NoError(t, p2.Unpin())
	// numPages does not shrink: disposed pages are never truncated.
	require.EqualValues(t, 2, fh.NumPages())
}

func TestDiskQuotaEnforced(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, 8)
	require.NoError(t, m.SetDatabase(filepath.Join(dir, "quotadb"), 2))

	name := filepath.Join(dir, "f1")
	require.NoError(t, m.CreateFile(name)) // consumes 1 page (header)
	fh, err := m.OpenFile(name)
	require.NoError(t, err)

	_, err = fh.AllocatePage() // consumes the 2nd and last page
	require.NoError(t, err)

	_, err = fh.AllocatePage()
	require.ErrorIs(t, err, rc.PfNoMemory)

	require.NoError(t, fh.DisposePage(0))
	_, err = fh.AllocatePage()
	require.NoError(t, err)
}

func TestDiskQuotaPersistsAcrossSwitchDatabase(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, 8)
	dbName := filepath.Join(dir, "persistdb")
	require.NoError(t, m.SetDatabase(dbName, 5))

	name := filepath.Join(dir, "f1")
	require.NoError(t, m.CreateFile(name))
	limit, used := m.QuotaUsage()
	require.EqualValues(t, 5, limit)
	require.EqualValues(t, 1, used)

	// Switch away and back; the record must round-trip through
	// {dbName}.pf_metadata.
	require.NoError(t, m.SetDatabase(filepath.Join(dir, "otherdb"), 0))
	require.NoError(t, m.SetDatabase(dbName, 0))

	limit2, used2 := m.QuotaUsage()
	require.EqualValues(t, 5, limit2)
	require.EqualValues(t, 1, used2)

	_, err := os.Stat(dbName + ".pf_metadata")
	require.NoError(t, err)
}

// TestDiskQuotaSurvivesProcessRestart is spec.md §8 scenario 5: close
// the database and reopen it in a brand-new Manager (simulating a
// process restart) without ever calling SetDatabase again on the
// original one. AllocatePage/DisposePage must persist used-pages as
// they happen, not only when switchDatabase or setLimit runs, or the
// fresh Manager's SetDatabase→load() would resume from stale usage.
func TestDiskQuotaSurvivesProcessRestart(t *testing.T) {
	dir := t.TempDir()
	dbName := filepath.Join(dir, "restartdb")

	m := newTestManager(t, 8)
	require.NoError(t, m.SetDatabase(dbName, 0))

	name := filepath.Join(dir, "f1")
	require.NoError(t, m.CreateFile(name)) // consumes 1 page (header)
	fh, err := m.OpenFile(name)
	require.NoError(t, err)
	_, err = fh.AllocatePage() // consumes a 2nd page
	require.NoError(t, err)
	_, err = fh.AllocatePage() // and a 3rd
	require.NoError(t, err)
	require.NoError(t, m.CloseFile(fh))

	_, used := m.QuotaUsage()
	require.EqualValues(t, 3, used)

	// No further SetDatabase call on m — drop it as if the process exited.
	m2 := newTestManager(t, 8)
	require.NoError(t, m2.SetDatabase(dbName, 0))
	_, used2 := m2.QuotaUsage()
	require.EqualValues(t, 3, used2)

	fh2, err := m2.OpenFile(name)
	require.NoError(t, err)
	require.NoError(t, fh2.DisposePage(1))
	_, used3 := m2.QuotaUsage()
	require.EqualValues(t, 2, used3)

	m3 := newTestManager(t, 8)
	require.NoError(t, m3.SetDatabase(dbName, 0))
	_, used4 := m3.QuotaUsage()
	require.EqualValues(t, 2, used4)
}

func TestDestroyFileRejectsOpenFile(t *testing.T) {
	m := newTestManager(t, 4)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))
	_, err := m.OpenFile(name)
	require.NoError(t, err)
	require.ErrorIs(t, m.DestroyFile(name), rc.PfFileOpen)
}

func TestResizeFlushesDirtyFrames(t *testing.T) {
	m := newTestManager(t, 4)
	name := tempFile(t)
	require.NoError(t, m.CreateFile(name))
	fh, err := m.OpenFile(name)
	require.NoError(t, err)

	page, err := fh.AllocatePage()
	require.NoError(t, err)
	copy(page.Payload, []byte("durable"))
	require.NoError(t, page.MarkDirty())
	require.NoError(t, page.Unpin())

	require.NoError(t, m.Resize(2))

	p0, err := fh.GetPage(0)
	require.NoError(t, err)
	require.Equal(t, []byte("durable"), p0.Payload[:7])
	require.NoError(t, p0.Unpin())
}
