package pf

import (
	"encoding/binary"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/rc"
)

// quotaRecordSize is the current on-disk record:
// {limitPages, usedPages uint64; mtime int64; databaseName [256]byte; originalLimitKB uint64}
const quotaRecordSize = 8 + 8 + 8 + 256 + 8

// legacyQuotaRecordSize is the layout before originalLimitKB was added;
// spec.md §4.1 requires reads to tolerate it.
const legacyQuotaRecordSize = 8 + 8 + 8 + 256

// diskQuota is the per-database page-allocation budget, persisted to
// "{databaseName}.pf_metadata". Grounded on
// original_source/PF/src/pf_manager.cc's LoadDiskUsageMetadata /
// SaveDiskUsageMetadata (DiskUsageMetadata struct with the same fields,
// including its own old-layout compatibility fallback).
type diskQuota struct {
	dbName string
	limit  int64 // 0 means unlimited
	used   int64

	logger *zap.Logger
}

func newDiskQuota(logger *zap.Logger) *diskQuota {
	return &diskQuota{logger: logger}
}

func metadataFileName(dbName string) string {
	return dbName + ".pf_metadata"
}

// switchDatabase flushes the current database's quota record (if any
// limit is set) and loads the target database's record, defaulting to
// an unlimited, zero-used quota if no record exists yet.
func (q *diskQuota) switchDatabase(dbName string) error {
	if q.dbName != "" && q.limit > 0 {
		if err := q.save(); err != nil {
			return err
		}
	}
	q.dbName = dbName
	q.limit = 0
	q.used = 0
	return q.load()
}

func (q *diskQuota) load() error {
	f, err := os.Open(metadataFileName(q.dbName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	buf := make([]byte, quotaRecordSize)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return nil
	}

	switch {
	case n >= quotaRecordSize:
		q.unmarshal(buf, true)
	case n >= legacyQuotaRecordSize:
		q.unmarshal(buf, false)
	default:
		// Truncated/corrupt metadata file: fall back to defaults rather
		// than fail database open.
		q.logger.Warn("pf_metadata shorter than any known layout, ignoring", zap.String("db", q.dbName), zap.Int("bytes", n))
	}
	if string(bytes0(buf[24:280])) != q.dbName {
		// Metadata belongs to a different database name; don't adopt it.
		q.limit, q.used = 0, 0
	}
	return nil
}

func (q *diskQuota) unmarshal(buf []byte, hasOriginalKB bool) {
	q.limit = int64(binary.LittleEndian.Uint64(buf[0:8]))
	q.used = int64(binary.LittleEndian.Uint64(buf[8:16]))
	_ = hasOriginalKB // originalLimitKB is write-only bookkeeping, not needed to resume
}

func (q *diskQuota) save() error {
	f, err := os.OpenFile(metadataFileName(q.dbName), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, quotaRecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(q.limit))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(q.used))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(time.Now().Unix()))
	copy(buf[24:280], []byte(q.dbName))
	originalKB := uint64(q.limit) * uint64(pageStride) / 1024
	binary.LittleEndian.PutUint64(buf[280:288], originalKB)

	if _, err := f.Write(buf); err != nil {
		return err
	}
	return nil
}

func bytes0(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// setLimit sets the page quota for the current database and persists it
// immediately.
func (q *diskQuota) setLimit(limitPages int64) error {
	q.limit = limitPages
	return q.save()
}

// reserve accounts for n additional pages, failing with rc.PfNoMemory if
// that would exceed the limit. limit <= 0 means unlimited. The new used
// count is persisted immediately, so a crash or an exit without a
// matching SetDatabase call never loses real disk growth (spec.md §8
// scenario 5: "reopen: quota counter shows the same used-pages value").
func (q *diskQuota) reserve(n int64) error {
	if q.limit > 0 && q.used+n > q.limit {
		return rc.PfNoMemory
	}
	q.used += n
	if q.dbName == "" {
		return nil
	}
	if err := q.save(); err != nil {
		q.used -= n
		return err
	}
	return nil
}

// release gives back n previously reserved pages and persists the new
// used count, for the same reason reserve does.
func (q *diskQuota) release(n int64) {
	q.used -= n
	if q.used < 0 {
		q.used = 0
	}
	if q.dbName == "" {
		return
	}
	if err := q.save(); err != nil {
		q.logger.Warn("failed to persist disk quota after release", zap.String("db", q.dbName), zap.Error(err))
	}
}
