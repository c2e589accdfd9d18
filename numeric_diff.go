package patch

import (
	"fmt"

	"github.com/goccy/go-json"
	"golang.org/x/exp/constraints"
)

// Numeric is the set of field types a NumericDistanceDiff can track.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// NumericDistanceDiff stores only new minus old. It applies to any current value by addition,
// so it never reports a mismatch. Unsigned and fixed width integers wrap, which keeps
// old + (new - old) == new.
type NumericDistanceDiff[F Numeric] struct {
	difference F
}

// NewNumericDistanceDiff records the transition old -> new as a delta.
func NewNumericDistanceDiff[F Numeric](old, new F) *NumericDistanceDiff[F] {
	return &NumericDistanceDiff[F]{difference: new - old}
}

// NewDelta creates a diff directly from a delta.
func NewDelta[F Numeric](difference F) *NumericDistanceDiff[F] {
	return &NumericDistanceDiff[F]{difference: difference}
}

// Difference returns the stored delta.
func (d *NumericDistanceDiff[F]) Difference() F { return d.difference }

func (d *NumericDistanceDiff[F]) Kind() DiffKind { return KindDelta }

func (d *NumericDistanceDiff[F]) ContainsChange() bool { return d.difference != 0 }

func (d *NumericDistanceDiff[F]) ChangesObject(F) bool { return d.ContainsChange() }

func (d *NumericDistanceDiff[F]) AppliesCleanly(F) error { return nil }

func (d *NumericDistanceDiff[F]) ApplyInto(obj *F) error {
	*obj += d.difference
	return nil
}

func (d *NumericDistanceDiff[F]) Merge(rhs Diff[F]) error {
	r, ok := rhs.(*NumericDistanceDiff[F])
	if !ok || r == nil {
		return fmt.Errorf("%w: cannot merge %s into %s", ErrIncompatibleDiff, kindName(rhs), d.Kind())
	}
	d.difference += r.difference
	return nil
}

func (d *NumericDistanceDiff[F]) Clone() Diff[F] {
	return &NumericDistanceDiff[F]{difference: d.difference}
}

func (d *NumericDistanceDiff[F]) sealed() {}

func (d *NumericDistanceDiff[F]) String() string { return fmt.Sprintf("%+v", d.difference) }

type numericDiffJSON[F Numeric] struct {
	Difference F `json:"difference"`
}

func (d *NumericDistanceDiff[F]) MarshalJSON() ([]byte, error) {
	return json.Marshal(numericDiffJSON[F]{Difference: d.difference})
}

func (d *NumericDistanceDiff[F]) UnmarshalJSON(data []byte) error {
	var raw numericDiffJSON[F]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.difference = raw.Difference
	return nil
}
