package xdom

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Conversion and resolution (non-fatal, surfaced to users)
	CodeUnrecognizedValue   = "unrecognized_value"
	CodeUnresolvedReference = "unresolved_reference"
	// Registration
	CodeInvalidContract = "invalid_contract"
	CodeDuplicateName   = "duplicate_name"
	CodeUnknownSlot     = "unknown_slot"
	// Files and anchors
	CodeNoDescription = "no_description"
	CodeInvalidAnchor = "invalid_anchor"
)

// ErrComputationAborted is returned when a cancellable scope walk was
// interrupted. Nothing is cached for an aborted computation; callers retry.
var ErrComputationAborted = errors.New("xdom: computation aborted")

// Issue represents a single diagnostic entry.
type Issue struct {
	Path    string // Element path (for example: /library/book[1]/title).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"value":"C"}) for i18n and
	// observability.
	Params map[string]any
}

// Issues is a collection of diagnostics that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. unresolved_reference at /library/book[0]/author: Cannot resolve C
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Message != "" {
			fmt.Fprintf(b, ": %s", it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// StructuralViolation is the panic value raised when an element is mutated
// in a state that does not allow it (for example after its node was removed
// or its file was closed). It signals a programming error: callers must hold
// a live element before mutating.
type StructuralViolation struct {
	Op     string
	Path   string
	State  State
	Reason string
}

func (v *StructuralViolation) Error() string {
	if v.Reason != "" {
		return fmt.Sprintf("xdom: %s on %s element %s: %s", v.Op, v.State, v.Path, v.Reason)
	}
	return fmt.Sprintf("xdom: %s on %s element %s", v.Op, v.State, v.Path)
}
