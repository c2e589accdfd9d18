package patch

// Base is implemented by whole-record values made of per-field slots.
type Base interface {
	// MaxFields is the number of optional slots.
	MaxFields() int
	IsComplete() bool
	IsEmpty() bool
	// Count is the number of populated optional slots, between 0 and MaxFields.
	Count() int
}

// PartialRecord is a possibly incomplete record of type T.
type PartialRecord[T any] interface {
	Base
	Apply(obj *T)
	Build() (T, error)
}

// PatchRecord is a conditional update of a record of type T. P is the concrete patch type.
type PatchRecord[T, P any] interface {
	Base
	Apply(obj *T) error
	Cleanup() bool
	IsCorrectTarget(obj *T) error
	CanApplyCleanly(obj *T) error
	Check(obj *T) error
	IsSameTarget(other P) bool
}

var (
	_ PartialRecord[struct{}]                 = (*Partial[struct{}])(nil)
	_ PatchRecord[struct{}, *Patch[struct{}]] = (*Patch[struct{}])(nil)
)
