package rc

// SM return codes, grounded on original_source/SM/include/sm.h. SM's
// range coincides numerically with IX's (both start at 200/-200 in the
// original source) but the two never collide here because Code carries
// its own Layer tag.
const (
	startSmWarn = 200
	startSmErr  = -200

	// MaxName is the maximum length of a relation or attribute name.
	MaxName = 24
	// MaxAttrs is the maximum number of attributes in a relation.
	MaxAttrs = 40
	// MaxStringLen is the maximum length of a STRING attribute.
	MaxStringLen = 255
)

var (
	SmDuplicateRel   = newCode(LayerSM, startSmWarn+0, "relation already exists")
	SmDuplicateAttr  = newCode(LayerSM, startSmWarn+1, "duplicate attribute name")
	SmDuplicateIndex = newCode(LayerSM, startSmWarn+2, "index already exists")
	SmRelNotFound    = newCode(LayerSM, startSmWarn+3, "relation not found")
	SmAttrNotFound   = newCode(LayerSM, startSmWarn+4, "attribute not found")
	SmIndexNotFound  = newCode(LayerSM, startSmWarn+5, "index not found")
	SmBadRelName     = newCode(LayerSM, startSmErr-0, "invalid relation name")
	SmBadAttrName    = newCode(LayerSM, startSmErr-1, "invalid attribute name")
	SmBadAttrType    = newCode(LayerSM, startSmErr-2, "invalid attribute type")
	SmBadAttrLength  = newCode(LayerSM, startSmErr-3, "invalid attribute length")
	SmTooManyAttrs   = newCode(LayerSM, startSmErr-4, "too many attributes")
	SmDBNotOpen      = newCode(LayerSM, startSmErr-5, "database not open")
	SmInvalidDB      = newCode(LayerSM, startSmErr-6, "invalid database")
	SmSystemCatalog  = newCode(LayerSM, startSmErr-7, "cannot modify system catalog")
	SmBadFileName    = newCode(LayerSM, startSmErr-8, "invalid file name")
)

// PrintSmError returns the human-readable form of an SM code, or false if
// c does not fall in the SM range.
func PrintSmError(c Code) (string, bool) {
	if c.layer != LayerSM {
		return "", false
	}
	return c.Error(), true
}
