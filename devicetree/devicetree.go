// Package devicetree answers hardware description queries for generator
// snippets.
//
// Two databases are supported: the flat key=value board configuration
// (Flat) and the structured database of nodes grouped by compatible (Tree).
// Both load lazily on first use.
package devicetree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/codegen/errors"
)

var (
	// ErrNodeNotFound reports a label that matches no selected node
	ErrNodeNotFound error = &notFoundError{msg: "device tree node not found"}

	// ErrPropertyNotFound reports a property absent from the database
	ErrPropertyNotFound error = &notFoundError{msg: "device tree property not found"}

	// ErrNoSelection reports a structured query made before SetDriverCompatibles
	ErrNoSelection = errors.New("no driver compatible set")
)

// notFoundError keeps node and property misses distinct while both
// match errors.ErrNotFound.
type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == errors.ErrNotFound }

// Identifier converts a compatible or node name into a C identifier
// fragment by replacing '-', ',' and '@' with '_'.
func Identifier(s string) string {
	return strings.NewReplacer("-", "_", ",", "_", "@", "_").Replace(s)
}

// Label is Identifier in upper case, as used by flat property names.
func Label(s string) string {
	return strings.ToUpper(Identifier(s))
}

// LabelToIndex normalises a node label for lookups.
func LabelToIndex(label string) string {
	return strings.ToLower(strings.Trim(label, `"`))
}

// FormatValue renders a database value as text for generated code.
// Integral numbers print without a fraction; lists are comma separated.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = FormatValue(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}
