package pf

import "encoding/binary"

// fileHeader is PF_FileHeader from spec.md §6: {firstFree, numPages},
// stored at offset 0 of the file, ahead of any page.
type fileHeader struct {
	firstFree PageNum
	numPages  int32
}

func (h fileHeader) marshal() []byte {
	buf := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.firstFree))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.numPages))
	return buf
}

func (h *fileHeader) unmarshal(buf []byte) {
	h.firstFree = int32(binary.LittleEndian.Uint32(buf[0:4]))
	h.numPages = int32(binary.LittleEndian.Uint32(buf[4:8]))
}

// pageHeader is PF_PageHeader: the single nextFree link threaded through
// disposed pages. It is invisible to every layer above PF.
type pageHeader struct {
	nextFree PageNum
}

func (h pageHeader) marshal() []byte {
	buf := make([]byte, pageHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.nextFree))
	return buf
}

func (h *pageHeader) unmarshal(buf []byte) {
	h.nextFree = int32(binary.LittleEndian.Uint32(buf[0:4]))
}

// pageOffset returns the byte offset of page num's on-disk record
// (header+payload), immediately following the file header.
func pageOffset(num PageNum) int64 {
	return int64(fileHeaderSize) + int64(num)*int64(pageStride)
}
