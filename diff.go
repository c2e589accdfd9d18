package patch

import (
	"errors"
	"fmt"
)

var (
	// ErrMergeConflict is returned by Diff.Merge when the right-hand diff does not start where the
	// receiver ends.
	ErrMergeConflict = errors.New("patch: diffs cannot be merged")
	// ErrIncompatibleDiff is returned when two diffs of different kinds are combined.
	ErrIncompatibleDiff = errors.New("patch: incompatible diff kinds")
)

// DiffKind identifies a Diff implementation.
type DiffKind uint8

const (
	KindCopy  DiffKind = iota // *CopyDiff: stores old and new value
	KindDelta                 // *NumericDistanceDiff: stores new minus old
)

func (k DiffKind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindDelta:
		return "delta"
	default:
		return fmt.Sprintf("DiffKind(%d)", uint8(k))
	}
}

func (k DiffKind) MarshalText() ([]byte, error) {
	switch k {
	case KindCopy, KindDelta:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("unknown diff kind %d", uint8(k))
}

func (k *DiffKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "copy":
		*k = KindCopy
	case "delta":
		*k = KindDelta
	default:
		return fmt.Errorf("unknown diff kind %q", text)
	}
	return nil
}

// Diff is a recorded change to a single field of type F.
//
// The set of implementations is closed: *CopyDiff and *NumericDistanceDiff.
type Diff[F any] interface {
	Kind() DiffKind

	// ContainsChange reports whether applying the diff to its own baseline changes the value.
	ContainsChange() bool

	// ChangesObject reports whether the diff is a real change that current already reflects.
	// For delta diffs it is the same as ContainsChange.
	ChangesObject(current F) bool

	// AppliesCleanly returns nil or a *MismatchError of type PatchOldValueMismatch. The
	// mismatch carries no field name; record level callers fill it in.
	AppliesCleanly(obj F) error

	// ApplyInto writes the change into obj. obj is left untouched on error.
	ApplyInto(obj *F) error

	// Merge folds rhs into the receiver so that it represents the receiver followed by rhs.
	Merge(rhs Diff[F]) error

	// Clone returns an independent copy.
	Clone() Diff[F]

	sealed()
}

func kindName[F any](d Diff[F]) string {
	if d == nil {
		return "nil diff"
	}
	return d.Kind().String()
}
