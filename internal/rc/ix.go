package rc

// IX return codes, grounded on original_source/IX/include/ix.h.
const (
	startIxWarn = 200
	startIxErr  = -200
)

var (
	IxEntryNotFound = newCode(LayerIX, startIxWarn+1, "index entry not found")
	IxEof           = newCode(LayerIX, startIxWarn+2, "end of index scan")
	IxIndexNotOpen  = newCode(LayerIX, startIxErr-1, "index not open")
	IxScanNotOpen   = newCode(LayerIX, startIxErr-2, "index scan not open")
	IxScanOpen      = newCode(LayerIX, startIxErr-3, "index scan already open")
	IxBucketFull    = newCode(LayerIX, startIxErr-4, "bucket page full")
	IxNullPointer   = newCode(LayerIX, startIxErr-5, "null pointer argument")
	IxInvalidTree   = newCode(LayerIX, startIxErr-6, "invalid B+tree structure")
)

// PrintIxError returns the human-readable form of an IX code, or false if
// c does not fall in the IX range.
func PrintIxError(c Code) (string, bool) {
	if c.layer != LayerIX {
		return "", false
	}
	return c.Error(), true
}
