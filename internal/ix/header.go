package ix

import (
	"encoding/binary"

	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/types"
)

// fileHeaderSize is the IX_FileHeader preamble stored in page 0's
// payload: {attrType, attrLength, rootPage, numPages, firstFreePage},
// five int32s.
const fileHeaderSize = 20

// nodeHeaderSize is the IX_NodeHeader preamble of every non-header page's
// payload: {isLeaf, numKeys, parent, left, right}, five int32s (isLeaf
// stored as 0/1 for a uniform fixed-width layout).
const nodeHeaderSize = 20

const noPage = -1

type fileHeader struct {
	attrType      types.AttrType
	attrLength    int32
	rootPage      int32
	numPages      int32
	firstFreePage int32
}

func (h fileHeader) marshal() []byte {
	buf := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.attrType))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.attrLength))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.rootPage))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.numPages))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.firstFreePage))
	return buf
}

func (h *fileHeader) unmarshal(buf []byte) {
	h.attrType = types.AttrType(binary.LittleEndian.Uint32(buf[0:4]))
	h.attrLength = int32(binary.LittleEndian.Uint32(buf[4:8]))
	h.rootPage = int32(binary.LittleEndian.Uint32(buf[8:12]))
	h.numPages = int32(binary.LittleEndian.Uint32(buf[12:16]))
	h.firstFreePage = int32(binary.LittleEndian.Uint32(buf[16:20]))
}

type nodeHeader struct {
	isLeaf  bool
	numKeys int32
	parent  int32
	left    int32
	right   int32
}

func (h nodeHeader) marshal() []byte {
	buf := make([]byte, nodeHeaderSize)
	leaf := int32(0)
	if h.isLeaf {
		leaf = 1
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(leaf))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.numKeys))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.parent))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.left))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.right))
	return buf
}

func (h *nodeHeader) unmarshal(buf []byte) {
	h.isLeaf = binary.LittleEndian.Uint32(buf[0:4]) != 0
	h.numKeys = int32(binary.LittleEndian.Uint32(buf[4:8]))
	h.parent = int32(binary.LittleEndian.Uint32(buf[8:12]))
	h.left = int32(binary.LittleEndian.Uint32(buf[12:16]))
	h.right = int32(binary.LittleEndian.Uint32(buf[16:20]))
}

// leafEntrySize/internalEntrySize/capacities, grounded on spec.md §4.3.
func leafEntrySize(attrLength int32) int32 { return attrLength + 8 } // key + RID{int32,int32}

func internalEntrySize(attrLength int32) int32 { return attrLength + 4 } // key + PageId

func maxLeafEntries(attrLength int32) int32 {
	return (pf.PageSize - nodeHeaderSize) / leafEntrySize(attrLength)
}

func maxInternalEntries(attrLength int32) int32 {
	return (pf.PageSize - nodeHeaderSize - 4) / internalEntrySize(attrLength)
}
