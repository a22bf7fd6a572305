package rc

// QL return codes, grounded on original_source/QL/include/ql.h.
const (
	startQlWarn = 300
	startQlErr  = -300
)

var (
	QlInvalidAttr       = newCode(LayerQL, startQlWarn+0, "invalid attribute")
	QlInvalidRel        = newCode(LayerQL, startQlWarn+1, "invalid relation")
	QlDuplicateRel      = newCode(LayerQL, startQlWarn+2, "duplicate relation")
	QlAmbiguousAttr     = newCode(LayerQL, startQlWarn+3, "ambiguous attribute")
	QlNoSuchTable       = newCode(LayerQL, startQlWarn+4, "no such table")
	QlNoSuchAttr        = newCode(LayerQL, startQlWarn+5, "no such attribute")
	QlDuplicateAttr     = newCode(LayerQL, startQlWarn+6, "duplicate attribute")
	QlInvalidOperator   = newCode(LayerQL, startQlWarn+7, "invalid operator")
	QlPlanNotOpen       = newCode(LayerQL, startQlWarn+8, "plan not open")
	QlPlanOpen          = newCode(LayerQL, startQlWarn+9, "plan already open")
	QlNullPointer       = newCode(LayerQL, startQlWarn+10, "null pointer")
	QlInvalidAttrForRel = newCode(LayerQL, startQlWarn+11, "invalid attribute for relation")
	QlAttrNotFound      = newCode(LayerQL, startQlWarn+12, "attribute not found")
	QlIncompatibleTypes = newCode(LayerQL, startQlErr-0, "incompatible types")
	QlInvalidValueCount = newCode(LayerQL, startQlErr-1, "invalid value count")
	QlInvalidCondition  = newCode(LayerQL, startQlErr-2, "invalid condition")
	QlSystemCatalog     = newCode(LayerQL, startQlErr-3, "cannot modify system catalog")
	QlEof               = newCode(LayerQL, startQlWarn+13, "end of query result")
)

// PrintQlError returns the human-readable form of a QL code, or false if
// c does not fall in the QL range.
func PrintQlError(c Code) (string, bool) {
	if c.layer != LayerQL {
		return "", false
	}
	return c.Error(), true
}
