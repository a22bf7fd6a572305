package rm

import "encoding/binary"

// fileHeaderSize is the RM_FileHeader preamble stored in page 0's payload:
// {recordSize, maxSlots, numPages, firstFreePage} as four int32s.
const fileHeaderSize = 16

// pageHeaderSize is the RM_PageHeader preamble of every data page's
// payload: {numRecords, nextFreePage} as two int32s.
const pageHeaderSize = 8

// noFreePage is the end-of-free-list sentinel, matching PF's convention.
const noFreePage = -1

type fileHeader struct {
	recordSize    int32
	maxSlots      int32
	numPages      int32
	firstFreePage int32
}

func (h fileHeader) marshal() []byte {
	buf := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.recordSize))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.maxSlots))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.numPages))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.firstFreePage))
	return buf
}

func (h *fileHeader) unmarshal(buf []byte) {
	h.recordSize = int32(binary.LittleEndian.Uint32(buf[0:4]))
	h.maxSlots = int32(binary.LittleEndian.Uint32(buf[4:8]))
	h.numPages = int32(binary.LittleEndian.Uint32(buf[8:12]))
	h.firstFreePage = int32(binary.LittleEndian.Uint32(buf[12:16]))
}

type pageHeader struct {
	numRecords   int32
	nextFreePage int32
}

func (h pageHeader) marshal() []byte {
	buf := make([]byte, pageHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.numRecords))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.nextFreePage))
	return buf
}

func (h *pageHeader) unmarshal(buf []byte) {
	h.numRecords = int32(binary.LittleEndian.Uint32(buf[0:4]))
	h.nextFreePage = int32(binary.LittleEndian.Uint32(buf[4:8]))
}

// bitmapBytes returns ceil(maxSlots/8), the size of the per-page slot
// occupancy bitmap. Grounded on
// original_source/RM/src/rm_internal.cc:RM_CalcBitmapSize.
func bitmapBytes(maxSlots int32) int32 {
	return (maxSlots + 7) / 8
}

// calcMaxSlots finds the largest n such that a page can hold n fixed-size
// records plus an n-bit occupancy bitmap within the PF payload, after the
// RM page header. Grounded on
// original_source/RM/src/rm_internal.cc:RM_CalcRecordsPerPage's linear
// search — P is small enough (4092 bytes) that this never costs more than
// a few thousand iterations (about 3,600 for a 1-byte record).
func calcMaxSlots(payloadSize int, recordSize int32) int32 {
	available := int32(payloadSize) - pageHeaderSize
	var n int32
	for {
		needed := n*recordSize + bitmapBytes(n)
		if needed > available {
			break
		}
		n++
	}
	return n - 1
}

func testBit(bitmap []byte, i int32) bool {
	return bitmap[i/8]&(1<<uint(i%8)) != 0
}

func setBit(bitmap []byte, i int32) {
	bitmap[i/8] |= 1 << uint(i%8)
}

func clearBit(bitmap []byte, i int32) {
	bitmap[i/8] &^= 1 << uint(i%8)
}

// findFreeSlot returns the lowest-numbered clear bit in bitmap, or -1 if
// every one of maxSlots bits is set.
func findFreeSlot(bitmap []byte, maxSlots int32) int32 {
	for i := int32(0); i < maxSlots; i++ {
		if !testBit(bitmap, i) {
			return i
		}
	}
	return -1
}

func popcount(bitmap []byte, maxSlots int32) int32 {
	var n int32
	for i := int32(0); i < maxSlots; i++ {
		if testBit(bitmap, i) {
			n++
		}
	}
	return n
}
