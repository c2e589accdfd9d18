package patch

import (
	"fmt"

	"github.com/goccy/go-json"
)

// CopyDiff stores the old and the new value of a field. It applies only to a field that still
// holds the old value, which makes it a compare-and-swap on that field.
type CopyDiff[F any] struct {
	oldValue F
	newValue F
	cmp      Comparer[F]
}

// NewCopyDiff records the transition old -> new using DefaultComparer.
func NewCopyDiff[F any](old, new F) *CopyDiff[F] {
	return NewCopyDiffWith(DefaultComparer[F](), old, new)
}

// NewCopyDiffWith records the transition old -> new using c for comparison and copying.
func NewCopyDiffWith[F any](c Comparer[F], old, new F) *CopyDiff[F] {
	if c == nil {
		c = DefaultComparer[F]()
	}
	return &CopyDiff[F]{oldValue: c.Copy(old), newValue: c.Copy(new), cmp: c}
}

func (d *CopyDiff[F]) comparer() Comparer[F] {
	if d.cmp == nil {
		return DefaultComparer[F]()
	}
	return d.cmp
}

// OldValue returns a copy of the expected baseline.
func (d *CopyDiff[F]) OldValue() F { return d.comparer().Copy(d.oldValue) }

// NewValue returns a copy of the value the diff writes.
func (d *CopyDiff[F]) NewValue() F { return d.comparer().Copy(d.newValue) }

func (d *CopyDiff[F]) Kind() DiffKind { return KindCopy }

func (d *CopyDiff[F]) ContainsChange() bool {
	return !d.comparer().Compare(d.newValue, d.oldValue)
}

func (d *CopyDiff[F]) ChangesObject(current F) bool {
	return d.ContainsChange() && d.comparer().Compare(current, d.newValue)
}

func (d *CopyDiff[F]) AppliesCleanly(obj F) error {
	if d.comparer().Compare(obj, d.oldValue) {
		return nil
	}
	return NewMismatchError("", formatValue(d.oldValue), formatValue(obj), PatchOldValueMismatch)
}

func (d *CopyDiff[F]) ApplyInto(obj *F) error {
	if err := d.AppliesCleanly(*obj); err != nil {
		return err
	}
	*obj = d.comparer().Copy(d.newValue)
	return nil
}

func (d *CopyDiff[F]) Merge(rhs Diff[F]) error {
	r, ok := rhs.(*CopyDiff[F])
	if !ok || r == nil {
		return fmt.Errorf("%w: cannot merge %s into %s", ErrIncompatibleDiff, kindName(rhs), d.Kind())
	}
	if !d.comparer().Compare(r.oldValue, d.newValue) {
		return fmt.Errorf("%w: expected old value %s, got %s", ErrMergeConflict, formatValue(d.newValue), formatValue(r.oldValue))
	}
	d.newValue = d.comparer().Copy(r.newValue)
	return nil
}

func (d *CopyDiff[F]) Clone() Diff[F] {
	c := d.comparer()
	return &CopyDiff[F]{oldValue: c.Copy(d.oldValue), newValue: c.Copy(d.newValue), cmp: d.cmp}
}

func (d *CopyDiff[F]) sealed() {}

func (d *CopyDiff[F]) String() string {
	return fmt.Sprintf("%s -> %s", formatValue(d.oldValue), formatValue(d.newValue))
}

type copyDiffJSON[F any] struct {
	Old F `json:"old"`
	New F `json:"new"`
}

func (d *CopyDiff[F]) MarshalJSON() ([]byte, error) {
	return json.Marshal(copyDiffJSON[F]{Old: d.oldValue, New: d.newValue})
}

// UnmarshalJSON decodes {"old":...,"new":...}. A comparer set before decoding is kept.
func (d *CopyDiff[F]) UnmarshalJSON(data []byte) error {
	var raw copyDiffJSON[F]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.oldValue, d.newValue = raw.Old, raw.New
	return nil
}
