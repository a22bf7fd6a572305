// Package rm implements the record manager: fixed-length-record heap
// files built on top of internal/pf. Every data page carries a bitmap of
// live slots; a free-page list threaded through page headers tracks which
// pages still have room for an insert. Grounded on
// ShubhamNegi4-DaemonDB/storage_engine/access/heapfile_manager for the
// manager/file-handle split and the lock-then-delegate method shape,
// reworked from its variable-length slotted-page layout onto
// original_source/RM's fixed-slot bitmap design.
package rm

import (
	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
)

// Manager creates, destroys, and opens RM heap files, all backed by one
// underlying paged-file Manager.
type Manager struct {
	pf     *pf.Manager
	logger *zap.Logger
}

// NewManager wraps pfMgr as the page-level backing store for RM files.
func NewManager(pfMgr *pf.Manager, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{pf: pfMgr, logger: logger}
}

// CreateFile creates a new heap file with fixed-length records of
// recordSize bytes. Fails with rc.RmRecordSizeTooBig if no page could
// hold even a single record of that size.
func (m *Manager) CreateFile(name string, recordSize int32) error {
	maxSlots := calcMaxSlots(pf.PageSize, recordSize)
	if maxSlots < 1 {
		return rc.RmRecordSizeTooBig
	}

	if err := m.pf.CreateFile(name); err != nil {
		return err
	}

	fh, err := m.pf.OpenFile(name)
	if err != nil {
		m.pf.DestroyFile(name)
		return err
	}

	hdr := fileHeader{recordSize: recordSize, maxSlots: maxSlots, numPages: 1, firstFreePage: noFreePage}
	page, err := fh.AllocatePage() // page 0 holds the RM file header
	if err != nil {
		m.pf.CloseFile(fh)
		m.pf.DestroyFile(name)
		return err
	}
	copy(page.Payload, hdr.marshal())
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		m.pf.CloseFile(fh)
		m.pf.DestroyFile(name)
		return err
	}
	if err := page.Unpin(); err != nil {
		m.pf.CloseFile(fh)
		m.pf.DestroyFile(name)
		return err
	}

	if err := m.pf.CloseFile(fh); err != nil {
		m.pf.DestroyFile(name)
		return err
	}
	return nil
}

// DestroyFile removes a closed heap file.
func (m *Manager) DestroyFile(name string) error {
	return m.pf.DestroyFile(name)
}

// OpenFile opens an existing heap file, reading its RM file header from
// page 0.
func (m *Manager) OpenFile(name string) (*FileHandle, error) {
	fh, err := m.pf.OpenFile(name)
	if err != nil {
		return nil, err
	}

	page, err := fh.GetPage(0)
	if err != nil {
		m.pf.CloseFile(fh)
		return nil, err
	}
	var hdr fileHeader
	hdr.unmarshal(page.Payload)
	if err := page.Unpin(); err != nil {
		m.pf.CloseFile(fh)
		return nil, err
	}

	return &FileHandle{
		pf:     fh,
		name:   name,
		header: hdr,
		logger: m.logger,
	}, nil
}

// CloseFile writes back the RM file header and closes the underlying
// paged file.
func (m *Manager) CloseFile(h *FileHandle) error {
	if err := h.writeHeader(); err != nil {
		return err
	}
	return m.pf.CloseFile(h.pf)
}
