// Package rc defines the return-code taxonomy shared by every storage
// layer (PF, RM, IX, SM, QL). Each layer owns a disjoint numeric range:
// positive codes are expected outcomes (EOF, not-found, already-unpinned),
// negative codes are contract violations or environmental failures. Zero
// always means success and is never constructed as an RC value.
package rc

import "fmt"

// Layer identifies which component a Code belongs to. SM and IX share a
// numeric range in the original source (both start at 200/-200); Layer
// is what keeps PrintError from conflating the two.
type Layer int

const (
	LayerPF Layer = iota
	LayerRM
	LayerIX
	LayerSM
	LayerQL
)

func (l Layer) String() string {
	switch l {
	case LayerPF:
		return "PF"
	case LayerRM:
		return "RM"
	case LayerIX:
		return "IX"
	case LayerSM:
		return "SM"
	case LayerQL:
		return "QL"
	default:
		return "?"
	}
}

// Code is a layer return code. It implements error so call sites can
// return it directly, while callers that care about the exact numeric
// value (e.g. to decide whether an outcome is a warning) can recover it
// with errors.As.
type Code struct {
	layer Layer
	value int
	msg   string
}

func newCode(layer Layer, value int, msg string) Code {
	return Code{layer: layer, value: value, msg: msg}
}

// Layer returns which component the code belongs to.
func (c Code) Layer() Layer { return c.layer }

// Value returns the underlying numeric return code.
func (c Code) Value() int { return c.value }

// IsWarning reports whether the code is a positive (expected-outcome)
// code rather than a negative (failure) code.
func (c Code) IsWarning() bool { return c.value > 0 }

func (c Code) Error() string {
	return fmt.Sprintf("%s_%s (%d)", c.layer, c.msg, c.value)
}

// Is lets errors.Is match two Codes with the same layer and value, which
// is how identity is defined for this type regardless of message text.
func (c Code) Is(target error) bool {
	other, ok := target.(Code)
	if !ok {
		return false
	}
	return other.layer == c.layer && other.value == c.value
}

// PrintError renders c with the printer of the layer recorded on c at
// construction, so a lower layer's Code propagated unchanged up through a
// higher layer's API still prints with its own layer's text. There is no
// forwarding between layers; if that printer does not recognize c, the
// result is c.Error().
func PrintError(c Code) string {
	if s, ok := printers[c.layer](c); ok {
		return s
	}
	return c.Error()
}

var printers = map[Layer]func(Code) (string, bool){
	LayerPF: PrintPfError,
	LayerRM: PrintRmError,
	LayerIX: PrintIxError,
	LayerSM: PrintSmError,
	LayerQL: PrintQlError,
}
