// Package ix implements the index manager: a disk-resident B+tree keyed
// on one fixed-length attribute, built on top of internal/pf. Leaf nodes
// are threaded into a doubly-linked list for range scans; insertion
// splits bottom-up, returning an explicit split result rather than the
// original's output parameters (spec.md §9's recommended redesign).
// Grounded on
// ShubhamNegi4-DaemonDB/storage_engine/access/indexfile_manager/bplustree
// for the Node/BPlusTree split and on original_source/IX for exact
// node-split and scan-termination semantics.
package ix

import (
	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// Manager creates, destroys, and opens IX files, all backed by one
// underlying paged-file Manager.
type Manager struct {
	pf     *pf.Manager
	logger *zap.Logger
}

func NewManager(pfMgr *pf.Manager, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{pf: pfMgr, logger: logger}
}

// CreateIndex creates a new, empty B+tree index file keyed on an
// attribute of the given type and fixed length.
func (m *Manager) CreateIndex(name string, attrType types.AttrType, attrLength int32) error {
	if attrType == types.AttrString && (attrLength < 1 || attrLength > types.MaxStringLen) {
		return rc.IxInvalidTree
	}
	if err := m.pf.CreateFile(name); err != nil {
		return err
	}

	fh, err := m.pf.OpenFile(name)
	if err != nil {
		m.pf.DestroyFile(name)
		return err
	}

	hdr := fileHeader{attrType: attrType, attrLength: attrLength, rootPage: noPage, numPages: 1, firstFreePage: noPage}
	page, err := fh.AllocatePage()
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

// DestroyIndex removes a closed index file.
func (m *Manager) DestroyIndex(name string) error {
	return m.pf.DestroyFile(name)
}

// OpenIndex opens an existing index file, reading its IX file header.
func (m *Manager) OpenIndex(name string) (*IndexHandle, error) {
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
	return &IndexHandle{pf: fh, name: name, header: hdr, logger: m.logger}, nil
}

// CloseIndex writes back the IX file header and closes the underlying
// paged file.
func (m *Manager) CloseIndex(h *IndexHandle) error {
	if err := h.writeHeader(); err != nil {
		return err
	}
	return m.pf.CloseFile(h.pf)
}
