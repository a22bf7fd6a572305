package ix

import (
	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// IndexHandle is a caller's view of one open B+tree index file.
type IndexHandle struct {
	pf     *pf.FileHandle
	name   string
	header fileHeader
	logger *zap.Logger
}

func (h *IndexHandle) writeHeader() error {
	page, err := h.pf.GetPage(0)
	if err != nil {
		return err
	}
	copy(page.Payload, h.header.marshal())
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return err
	}
	return page.Unpin()
}

// splitResult is the explicit outcome of a recursive insert into one
// subtree: either no split, or a promoted key and a new right-sibling
// page that the caller must link in. Grounded on spec.md §9's preferred
// redesign over output parameters.
type splitResult struct {
	split        bool
	promotedKey  []byte
	newChildPage int32
}

func (h *IndexHandle) allocateNode(isLeaf bool, left, right, parent int32) (*pf.Page, error) {
	page, err := h.pf.AllocatePage()
	if err != nil {
		return nil, err
	}
	hdr := nodeHeader{isLeaf: isLeaf, numKeys: 0, parent: parent, left: left, right: right}
	copy(page.Payload[:nodeHeaderSize], hdr.marshal())
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return nil, err
	}
	h.header.numPages++
	return page, nil
}

// InsertEntry inserts (key, rid) into the tree, growing it from an empty
// tree or splitting nodes bottom-up as needed. Grounded on spec.md §4.3's
// recursive top-down insertion description.
func (h *IndexHandle) InsertEntry(key []byte, rid types.RID) error {
	if int32(len(key)) != h.header.attrLength {
		return rc.IxInvalidTree
	}

	if h.header.rootPage == noPage {
		page, err := h.allocateNode(true, noPage, noPage, noPage)
		if err != nil {
			return err
		}
		writeLeafNode(page.Payload, nodeHeader{isLeaf: true, parent: noPage, left: noPage, right: noPage}, []leafEntry{{key: key, rid: rid}}, h.header.attrLength)
		rootPage := page.Num
		if err := page.Unpin(); err != nil {
			return err
		}
		h.header.rootPage = rootPage
		return h.writeHeader()
	}

	result, err := h.insertRec(h.header.rootPage, key, rid)
	if err != nil {
		return err
	}
	if result.split {
		newRoot, err := h.allocateNode(false, noPage, noPage, noPage)
		if err != nil {
			return err
		}
		writeInternalNode(newRoot.Payload, nodeHeader{}, h.header.rootPage, []internalEntry{{key: result.promotedKey, child: result.newChildPage}}, h.header.attrLength)
		newRootNum := newRoot.Num
		if err := newRoot.Unpin(); err != nil {
			return err
		}
		if err := h.reparent(h.header.rootPage, newRootNum); err != nil {
			return err
		}
		if err := h.reparent(result.newChildPage, newRootNum); err != nil {
			return err
		}
		h.header.rootPage = newRootNum
	}
	return h.writeHeader()
}

func (h *IndexHandle) reparent(child, parent int32) error {
	page, err := h.pf.GetPage(child)
	if err != nil {
		return err
	}
	var hdr nodeHeader
	hdr.unmarshal(page.Payload[:nodeHeaderSize])
	hdr.parent = parent
	copy(page.Payload[:nodeHeaderSize], hdr.marshal())
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return err
	}
	return page.Unpin()
}

func (h *IndexHandle) insertRec(pageNum int32, key []byte, rid types.RID) (splitResult, error) {
	page, err := h.pf.GetPage(pageNum)
	if err != nil {
		return splitResult{}, err
	}
	var hdr nodeHeader
	hdr.unmarshal(page.Payload[:nodeHeaderSize])

	if hdr.isLeaf {
		defer page.Unpin()
		entries := readLeafEntries(page.Payload, hdr, h.header.attrLength)
		pos := findLeafInsertPos(entries, h.header.attrType, h.header.attrLength, key, rid)
		entries = insertLeafEntry(entries, pos, leafEntry{key: key, rid: rid})

		if int32(len(entries)) <= maxLeafEntries(h.header.attrLength) {
			writeLeafNode(page.Payload, hdr, entries, h.header.attrLength)
			if err := page.MarkDirty(); err != nil {
				return splitResult{}, err
			}
			return splitResult{}, nil
		}
		return h.splitLeaf(page, hdr, entries)
	}

	leadingChild, entries := readInternalEntries(page.Payload, hdr, h.header.attrLength)
	descendPos := findInternalDescendPos(entries, h.header.attrType, h.header.attrLength, key)
	childPage := leadingChild
	if descendPos > 0 {
		childPage = entries[descendPos-1].child
	}
	if err := page.Unpin(); err != nil {
		return splitResult{}, err
	}

	childResult, err := h.insertRec(childPage, key, rid)
	if err != nil {
		return splitResult{}, err
	}
	if !childResult.split {
		return splitResult{}, nil
	}

	page, err = h.pf.GetPage(pageNum)
	if err != nil {
		return splitResult{}, err
	}
	defer page.Unpin()
	hdr.unmarshal(page.Payload[:nodeHeaderSize])
	leadingChild, entries = readInternalEntries(page.Payload, hdr, h.header.attrLength)
	entries = insertInternalEntry(entries, descendPos, internalEntry{key: childResult.promotedKey, child: childResult.newChildPage})

	if int32(len(entries)) <= maxInternalEntries(h.header.attrLength) {
		writeInternalNode(page.Payload, hdr, leadingChild, entries, h.header.attrLength)
		if err := page.MarkDirty(); err != nil {
			return splitResult{}, err
		}
		if err := h.reparent(childResult.newChildPage, pageNum); err != nil {
			return splitResult{}, err
		}
		return splitResult{}, nil
	}
	return h.splitInternal(page, hdr, leadingChild, entries)
}

// splitLeaf implements spec.md §4.3's leaf-split rule: split at
// ⌊len/2⌋, the right half (including entries[mid]) becomes a new page,
// and the right half's first key is promoted (both copies remain).
// page is unpinned by the caller's defer.
func (h *IndexHandle) splitLeaf(page *pf.Page, hdr nodeHeader, entries []leafEntry) (splitResult, error) {
	mid := len(entries) / 2
	left := entries[:mid]
	right := entries[mid:]

	oldRight := hdr.right
	newPage, err := h.allocateNode(true, page.Num, oldRight, hdr.parent)
	if err != nil {
		return splitResult{}, err
	}
	writeLeafNode(newPage.Payload, nodeHeader{isLeaf: true, left: page.Num, right: oldRight, parent: hdr.parent}, right, h.header.attrLength)
	newPageNum := newPage.Num
	if err := newPage.Unpin(); err != nil {
		return splitResult{}, err
	}

	hdr.right = newPageNum
	writeLeafNode(page.Payload, hdr, left, h.header.attrLength)
	if err := page.MarkDirty(); err != nil {
		return splitResult{}, err
	}

	if oldRight != noPage {
		if err := h.setLeft(oldRight, newPageNum); err != nil {
			return splitResult{}, err
		}
	}

	return splitResult{split: true, promotedKey: right[0].key, newChildPage: newPageNum}, nil
}

func (h *IndexHandle) setLeft(pageNum, left int32) error {
	page, err := h.pf.GetPage(pageNum)
	if err != nil {
		return err
	}
	var hdr nodeHeader
	hdr.unmarshal(page.Payload[:nodeHeaderSize])
	hdr.left = left
	copy(page.Payload[:nodeHeaderSize], hdr.marshal())
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return err
	}
	return page.Unpin()
}

// splitInternal implements spec.md §4.3's internal-split rule: the
// middle key is promoted and removed from both halves (standard
// B+tree), unlike the leaf case. page is unpinned by the caller's defer.
func (h *IndexHandle) splitInternal(page *pf.Page, hdr nodeHeader, leadingChild int32, entries []internalEntry) (splitResult, error) {
	mid := len(entries) / 2
	promoted := entries[mid].key
	left := entries[:mid]
	right := entries[mid+1:]
	rightLeadingChild := entries[mid].child

	newPage, err := h.allocateNode(false, noPage, noPage, hdr.parent)
	if err != nil {
		return splitResult{}, err
	}
	writeInternalNode(newPage.Payload, nodeHeader{parent: hdr.parent}, rightLeadingChild, right, h.header.attrLength)
	newPageNum := newPage.Num
	if err := newPage.Unpin(); err != nil {
		return splitResult{}, err
	}

	writeInternalNode(page.Payload, hdr, leadingChild, left, h.header.attrLength)
	if err := page.MarkDirty(); err != nil {
		return splitResult{}, err
	}

	if err := h.reparent(rightLeadingChild, newPageNum); err != nil {
		return splitResult{}, err
	}
	for _, e := range right {
		if err := h.reparent(e.child, newPageNum); err != nil {
			return splitResult{}, err
		}
	}

	return splitResult{split: true, promotedKey: promoted, newChildPage: newPageNum}, nil
}

// ForcePages flushes this index's dirty pages to disk.
func (h *IndexHandle) ForcePages() error {
	return h.pf.ForcePages(nil)
}
