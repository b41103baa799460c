package calc

import "fmt"

// SchemaError is a hard derivation failure: the statement cannot be analysed
// until the file is fixed.
type SchemaError struct {
	Reason string
	Row    int // 1-based data row, 0 when not row specific
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("statement schema error (row %d): %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("statement schema error: %s", e.Reason)
}

// ErrMissingTotalAssets is the reason reported when no row matches the
// total-assets marker.
const ErrMissingTotalAssets = "required total-assets line item missing"

// LookupWarning reports an optional line item that was absent or ambiguous.
// Processing continues; the dependent metric reports as not determinable.
type LookupWarning struct {
	Marker  string `json:"marker"`
	Message string `json:"message"`
}

func (w LookupWarning) Error() string {
	return fmt.Sprintf("lookup warning [%s]: %s", w.Marker, w.Message)
}
