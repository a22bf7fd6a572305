package rc

// PF return codes, grounded on original_source/PF/include/pf.h. PF owns
// the smallest range in the taxonomy (no START_PF_WARN offset in the
// original source) since it is the lowest layer.
var (
	PfEof             = newCode(LayerPF, 1, "end of file")
	PfPagePinned      = newCode(LayerPF, 2, "page still pinned")
	PfPageNotInBuf    = newCode(LayerPF, 3, "page not in buffer")
	PfPageUnpinned    = newCode(LayerPF, 4, "page already unpinned")
	PfPageFree        = newCode(LayerPF, 5, "page already free")
	PfInvalidPage     = newCode(LayerPF, 6, "invalid page number")
	PfFileOpen        = newCode(LayerPF, 7, "file handle already open")
	PfClosedFile      = newCode(LayerPF, 8, "file handle closed")
	PfNoMemory        = newCode(LayerPF, -1, "insufficient memory")
	PfNoBuffer        = newCode(LayerPF, -2, "no free buffer frame available")
	PfIncompleteRead  = newCode(LayerPF, -3, "incomplete page read")
	PfIncompleteWrite = newCode(LayerPF, -4, "incomplete page write")
	PfHdrRead         = newCode(LayerPF, -5, "file header read failed")
	PfHdrWrite        = newCode(LayerPF, -6, "file header write failed")
	PfPageInBuf       = newCode(LayerPF, -10, "newly allocated page already in buffer")
	PfHashNotFound    = newCode(LayerPF, -11, "hash table entry not found")
	PfHashPageExists  = newCode(LayerPF, -12, "page already present in hash table")
	PfInvalidName     = newCode(LayerPF, -13, "invalid file name")
	PfUnix            = newCode(LayerPF, -14, "unix system call failed")
	PfInvalidSize     = newCode(LayerPF, -15, "invalid size parameter")
)

// PrintPfError returns the human-readable form of a PF code, or false if
// c does not fall in the PF range.
func PrintPfError(c Code) (string, bool) {
	if c.layer != LayerPF {
		return "", false
	}
	return c.Error(), true
}
