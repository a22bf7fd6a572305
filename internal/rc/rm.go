package rc

// RM return codes, grounded on original_source/RM/include/{rm.h,rm_rid.h}.
const (
	startRmWarn = 100
	startRmErr  = -100
)

var (
	RmInvalidRID        = newCode(LayerRM, startRmWarn+0, "invalid RID")
	RmRecordNotFound    = newCode(LayerRM, startRmWarn+1, "record not found")
	RmEof               = newCode(LayerRM, startRmWarn+2, "end of scan")
	RmInvalidRecord     = newCode(LayerRM, startRmWarn+3, "invalid record")
	RmInvalidRIDPageNum = newCode(LayerRM, startRmWarn+10, "invalid RID page number")
	RmInvalidRIDSlotNum = newCode(LayerRM, startRmWarn+11, "invalid RID slot number")
	RmRecordSizeTooBig  = newCode(LayerRM, startRmErr-0, "record size too big")
	RmFileNotOpen       = newCode(LayerRM, startRmErr-1, "file not open")
	RmScanAlreadyOpen   = newCode(LayerRM, startRmErr-2, "scan already open")
	RmScanNotOpen       = newCode(LayerRM, startRmErr-3, "scan not open")
	RmInvalidFile       = newCode(LayerRM, startRmErr-4, "invalid file")
)

// PrintRmError returns the human-readable form of an RM code, or false if
// c does not fall in the RM range.
func PrintRmError(c Code) (string, bool) {
	if c.layer != LayerRM {
		return "", false
	}
	return c.Error(), true
}
