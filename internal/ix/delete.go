package ix

import (
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// DeleteEntry removes the exact (key, rid) pair from the tree. No
// rebalancing or merging is performed on underflow, per spec.md §4.3's
// Non-goals — a leaf may end up with arbitrarily few entries.
func (h *IndexHandle) DeleteEntry(key []byte, rid types.RID) error {
	if h.header.rootPage == noPage {
		return rc.IxEntryNotFound
	}

	leafPage, err := h.findLeaf(h.header.rootPage, key)
	if err != nil {
		return err
	}
	page, err := h.pf.GetPage(leafPage)
	if err != nil {
		return err
	}
	var hdr nodeHeader
	hdr.unmarshal(page.Payload[:nodeHeaderSize])
	entries := readLeafEntries(page.Payload, hdr, h.header.attrLength)

	pos := -1
	for i, e := range entries {
		if types.Compare(h.header.attrType, e.key, key, int(h.header.attrLength)) == 0 && e.rid == rid {
			pos = i
			break
		}
	}
	if pos < 0 {
		page.Unpin()
		return rc.IxEntryNotFound
	}

	entries = append(entries[:pos], entries[pos+1:]...)
	writeLeafNode(page.Payload, hdr, entries, h.header.attrLength)
	if err := page.MarkDirty(); err != nil {
		page.Unpin()
		return err
	}
	return page.Unpin()
}

// findLeaf descends from pageNum to the leaf that would hold key.
func (h *IndexHandle) findLeaf(pageNum int32, key []byte) (int32, error) {
	page, err := h.pf.GetPage(pageNum)
	if err != nil {
		return 0, err
	}
	var hdr nodeHeader
	hdr.unmarshal(page.Payload[:nodeHeaderSize])
	if hdr.isLeaf {
		if err := page.Unpin(); err != nil {
			return 0, err
		}
		return pageNum, nil
	}
	leadingChild, entries := readInternalEntries(page.Payload, hdr, h.header.attrLength)
	pos := findInternalDescendPos(entries, h.header.attrType, h.header.attrLength, key)
	child := leadingChild
	if pos > 0 {
		child = entries[pos-1].child
	}
	if err := page.Unpin(); err != nil {
		return 0, err
	}
	return h.findLeaf(child, key)
}
