package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MismatchType tells which check produced a MismatchError.
type MismatchType int

const (
	ObjectIdentity        MismatchType = iota // an identity field of the target differs from the patch
	PatchOldValueMismatch                     // the current field value differs from the diff's old value
)

func (t MismatchType) String() string {
	switch t {
	case ObjectIdentity:
		return "Object id didn't match patch id"
	case PatchOldValueMismatch:
		return "Current object value did not match old patch value"
	default:
		return fmt.Sprintf("MismatchType(%d)", int(t))
	}
}

func (t MismatchType) MarshalText() ([]byte, error) {
	switch t {
	case ObjectIdentity:
		return []byte("object_identity"), nil
	case PatchOldValueMismatch:
		return []byte("patch_old_value"), nil
	}
	return nil, fmt.Errorf("unknown mismatch type %d", int(t))
}

func (t *MismatchType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "object_identity":
		*t = ObjectIdentity
	case "patch_old_value":
		*t = PatchOldValueMismatch
	default:
		return fmt.Errorf("unknown mismatch type %q", text)
	}
	return nil
}

// MismatchError describes one field whose value prevented a patch from applying.
type MismatchError struct {
	Field    string
	Expected string
	Received string
	Type     MismatchType
}

// NewMismatchError creates a MismatchError.
func NewMismatchError(field, expected, received string, typ MismatchType) *MismatchError {
	return &MismatchError{Field: field, Expected: expected, Received: received, Type: typ}
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s - field %s: expected %s, got %s", e.Type, e.Field, e.Expected, e.Received)
}

// Name returns the field name.
func (e *MismatchError) Name() string { return e.Field }

// PrettyDiff renders the character-level difference between Expected and Received.
func (e *MismatchError) PrettyDiff() string {
	dmp := diffmatchpatch.New()
	return dmp.DiffPrettyText(dmp.DiffMain(e.Expected, e.Received, false))
}

func (e *MismatchError) withField(name string) *MismatchError {
	c := *e
	c.Field = name
	return &c
}

// MultipleMismatchError collects the mismatches found by a single check. Mismatches are kept
// in the order they were added and are not deduplicated.
type MultipleMismatchError struct {
	mismatches []MismatchError
}

// NewMultipleMismatchError returns an empty, error-free collection.
func NewMultipleMismatchError() *MultipleMismatchError { return &MultipleMismatchError{} }

// Add appends a mismatch.
func (m *MultipleMismatchError) Add(e MismatchError) { m.mismatches = append(m.mismatches, e) }

// Merge appends every mismatch of rhs.
func (m *MultipleMismatchError) Merge(rhs *MultipleMismatchError) {
	if rhs == nil {
		return
	}
	m.mismatches = append(m.mismatches, rhs.mismatches...)
}

func (m *MultipleMismatchError) IsErrorFree() bool { return len(m.mismatches) == 0 }
func (m *MultipleMismatchError) HasErrors() bool   { return len(m.mismatches) != 0 }
func (m *MultipleMismatchError) Len() int          { return len(m.mismatches) }

// Mismatches returns a copy of the collected mismatches.
func (m *MultipleMismatchError) Mismatches() []MismatchError {
	out := make([]MismatchError, len(m.mismatches))
	copy(out, m.mismatches)
	return out
}

// ByType returns the mismatches of the given type.
func (m *MultipleMismatchError) ByType(t MismatchType) []MismatchError {
	var out []MismatchError
	for _, e := range m.mismatches {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ErrorOrNil returns m as an error, or nil when no mismatch was collected.
func (m *MultipleMismatchError) ErrorOrNil() error {
	if m == nil || m.IsErrorFree() {
		return nil
	}
	return m
}

func (m *MultipleMismatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d mismatches:\n", len(m.mismatches))
	for i := range m.mismatches {
		sb.WriteString(m.mismatches[i].Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Unwrap exposes every mismatch to errors.Is and errors.As.
func (m *MultipleMismatchError) Unwrap() []error {
	out := make([]error, len(m.mismatches))
	for i := range m.mismatches {
		e := m.mismatches[i]
		out[i] = &e
	}
	return out
}
