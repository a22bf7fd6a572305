package ix

import (
	"encoding/binary"

	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// leafEntry is one (key, RID) pair of a leaf node, materialized from the
// page payload into a Go slice so insert/split logic can work with plain
// slices rather than raw offsets (spec.md §9's "materialize into a
// scratch buffer" description).
type leafEntry struct {
	key []byte
	rid types.RID
}

// internalEntry is one (key, childPage) pair of an internal node. The
// leading child pointer that precedes every internal node's first key is
// kept alongside the entries, not inside them.
type internalEntry struct {
	key   []byte
	child int32
}

func readLeafEntries(payload []byte, h nodeHeader, attrLength int32) []leafEntry {
	entries := make([]leafEntry, h.numKeys)
	stride := leafEntrySize(attrLength)
	for i := int32(0); i < h.numKeys; i++ {
		off := nodeHeaderSize + i*stride
		key := make([]byte, attrLength)
		copy(key, payload[off:off+attrLength])
		rid := types.RID{
			PageNum: int32(binary.LittleEndian.Uint32(payload[off+attrLength:])),
			SlotNum: int32(binary.LittleEndian.Uint32(payload[off+attrLength+4:])),
		}
		entries[i] = leafEntry{key: key, rid: rid}
	}
	return entries
}

func writeLeafNode(payload []byte, h nodeHeader, entries []leafEntry, attrLength int32) {
	h.numKeys = int32(len(entries))
	copy(payload[:nodeHeaderSize], h.marshal())
	stride := leafEntrySize(attrLength)
	for i, e := range entries {
		off := nodeHeaderSize + int32(i)*stride
		copy(payload[off:off+attrLength], e.key)
		binary.LittleEndian.PutUint32(payload[off+attrLength:], uint32(e.rid.PageNum))
		binary.LittleEndian.PutUint32(payload[off+attrLength+4:], uint32(e.rid.SlotNum))
	}
}

func readInternalEntries(payload []byte, h nodeHeader, attrLength int32) (leadingChild int32, entries []internalEntry) {
	leadingChild = int32(binary.LittleEndian.Uint32(payload[nodeHeaderSize:]))
	stride := internalEntrySize(attrLength)
	base := int32(nodeHeaderSize + 4)
	entries = make([]internalEntry, h.numKeys)
	for i := int32(0); i < h.numKeys; i++ {
		off := base + i*stride
		key := make([]byte, attrLength)
		copy(key, payload[off:off+attrLength])
		child := int32(binary.LittleEndian.Uint32(payload[off+attrLength:]))
		entries[i] = internalEntry{key: key, child: child}
	}
	return leadingChild, entries
}

func writeInternalNode(payload []byte, h nodeHeader, leadingChild int32, entries []internalEntry, attrLength int32) {
	h.numKeys = int32(len(entries))
	copy(payload[:nodeHeaderSize], h.marshal())
	binary.LittleEndian.PutUint32(payload[nodeHeaderSize:], uint32(leadingChild))
	stride := internalEntrySize(attrLength)
	base := int32(nodeHeaderSize + 4)
	for i, e := range entries {
		off := base + int32(i)*stride
		copy(payload[off:off+attrLength], e.key)
		binary.LittleEndian.PutUint32(payload[off+attrLength:], uint32(e.child))
	}
}

// findLeafInsertPos returns the insertion point keeping entries sorted
// by (key, RID) — spec.md §3's leaf payload invariant, "sorted by key
// (ties broken by RID)".
func findLeafInsertPos(entries []leafEntry, attrType types.AttrType, attrLength int32, key []byte, rid types.RID) int {
	for i, e := range entries {
		cmp := types.Compare(attrType, e.key, key, int(attrLength))
		if cmp > 0 || (cmp == 0 && ridLess(rid, e.rid)) {
			return i
		}
	}
	return len(entries)
}

func ridLess(a, b types.RID) bool {
	if a.PageNum != b.PageNum {
		return a.PageNum < b.PageNum
	}
	return a.SlotNum < b.SlotNum
}

func findInternalDescendPos(entries []internalEntry, attrType types.AttrType, attrLength int32, key []byte) int {
	i := 0
	for i < len(entries) && types.Compare(attrType, entries[i].key, key, int(attrLength)) <= 0 {
		i++
	}
	return i
}

func insertLeafEntry(entries []leafEntry, pos int, e leafEntry) []leafEntry {
	out := make([]leafEntry, 0, len(entries)+1)
	out = append(out, entries[:pos]...)
	out = append(out, e)
	out = append(out, entries[pos:]...)
	return out
}

func insertInternalEntry(entries []internalEntry, pos int, e internalEntry) []internalEntry {
	out := make([]internalEntry, 0, len(entries)+1)
	out = append(out, entries[:pos]...)
	out = append(out, e)
	out = append(out, entries[pos:]...)
	return out
}
