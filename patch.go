package patch

import (
	"errors"
	"fmt"
)

// ErrDifferentTarget is returned by Patch.Merge when the patches address different records.
var ErrDifferentTarget = errors.New("patch: patches target different records")

// Change is a read-only view of one populated diff slot.
type Change struct {
	Field    string
	JSONName string
	Kind     DiffKind
	Old, New any // KindCopy only
	Delta    any // KindDelta only
}

// Patch is a conditional update of a record: the identity values of the record it targets
// and at most one Diff per settable field.
type Patch[T any] struct {
	schema *Schema[T]
	ids    []any // parallel to schema.identity
	diffs  []any // indexed like schema.fields, nil when the slot is empty
}

// NewPatch returns an empty patch targeting the record identified by target.
func (s *Schema[T]) NewPatch(target T) *Patch[T] {
	p := &Patch[T]{schema: s, ids: make([]any, len(s.identity)), diffs: make([]any, len(s.fields))}
	for k, i := range s.identity {
		p.ids[k] = s.fields[i].get(&target)
	}
	return p
}

// Diff returns the patch turning old into new. Identity values are taken from old. Unless the
// schema was built with WithUnconditionalDiff, only changed fields get a slot.
func (s *Schema[T]) Diff(old, new T) *Patch[T] {
	p := s.NewPatch(old)
	for _, i := range s.settable {
		f := s.fields[i]
		ov, nv := f.get(&old), f.get(&new)
		if !s.opts.UnconditionalDiff && f.equal(ov, nv) {
			continue
		}
		p.diffs[i] = f.newDiff(ov, nv)
	}
	return p
}

// Schema returns the schema the patch was created from.
func (p *Patch[T]) Schema() *Schema[T] { return p.schema }

// MaxFields returns the number of diff slots.
func (p *Patch[T]) MaxFields() int { return len(p.schema.settable) }

// Count returns the number of populated diff slots.
func (p *Patch[T]) Count() int {
	n := 0
	for _, d := range p.diffs {
		if d != nil {
			n++
		}
	}
	return n
}

func (p *Patch[T]) IsComplete() bool { return p.Count() == p.MaxFields() }
func (p *Patch[T]) IsEmpty() bool    { return p.Count() == 0 }

func (p *Patch[T]) settableIndex(name string) (int, error) {
	i, err := p.schema.index(name)
	if err != nil {
		return 0, err
	}
	if r := p.schema.fields[i].info().Role; !r.settable() {
		return 0, fmt.Errorf("%w: %s field %s has no diff slot", ErrFieldRole, r, name)
	}
	return i, nil
}

// setDiff stores d, which must hold a Diff of the field type.
func (p *Patch[T]) setDiff(name string, d any) error {
	i, err := p.settableIndex(name)
	if err != nil {
		return err
	}
	f := p.schema.fields[i]
	if err := f.checkDiff(d); err != nil {
		return err
	}
	p.diffs[i] = f.diffClone(d)
	return nil
}

// Unset clears a diff slot.
func (p *Patch[T]) Unset(name string) error {
	i, err := p.settableIndex(name)
	if err != nil {
		return err
	}
	p.diffs[i] = nil
	return nil
}

func (p *Patch[T]) Has(name string) bool {
	i, ok := p.schema.byName[name]
	return ok && p.diffs[i] != nil
}

// Fields returns the names of the populated slots in declaration order.
func (p *Patch[T]) Fields() []string {
	var out []string
	for i, d := range p.diffs {
		if d != nil {
			out = append(out, p.schema.fields[i].info().Name)
		}
	}
	return out
}

// Changes returns a view of every populated slot in declaration order.
func (p *Patch[T]) Changes() []Change {
	var out []Change
	for i, d := range p.diffs {
		if d != nil {
			out = append(out, p.schema.fields[i].diffChange(d))
		}
	}
	return out
}

// IdentityValues returns copies of the identity values keyed by field name.
func (p *Patch[T]) IdentityValues() map[string]any {
	out := make(map[string]any, len(p.ids))
	for k, i := range p.schema.identity {
		f := p.schema.fields[i]
		out[f.info().Name] = f.copyValue(p.ids[k])
	}
	return out
}

// ObjectID renders the identity of the target record.
func (p *Patch[T]) ObjectID() string { return p.schema.formatIdentity(p.ids) }

func (p *Patch[T]) identityMismatches(obj *T) *MultipleMismatchError {
	m := NewMultipleMismatchError()
	for k, i := range p.schema.identity {
		f := p.schema.fields[i]
		cur := f.get(obj)
		if !f.equal(p.ids[k], cur) {
			m.Add(*NewMismatchError(f.info().Name, formatValue(p.ids[k]), formatValue(cur), ObjectIdentity))
		}
	}
	return m
}

func (p *Patch[T]) cleanMismatches(obj *T) *MultipleMismatchError {
	m := NewMultipleMismatchError()
	for i, d := range p.diffs {
		if d == nil {
			continue
		}
		if mm := p.schema.fields[i].diffAppliesCleanly(d, obj); mm != nil {
			m.Add(*mm)
		}
	}
	return m
}

// IsCorrectTarget compares every identity field against obj. It returns nil or a
// *MultipleMismatchError holding one ObjectIdentity mismatch per differing field.
func (p *Patch[T]) IsCorrectTarget(obj *T) error {
	return p.identityMismatches(obj).ErrorOrNil()
}

// CanApplyCleanly checks every populated slot against obj. It returns nil or a
// *MultipleMismatchError holding one PatchOldValueMismatch per stale field.
func (p *Patch[T]) CanApplyCleanly(obj *T) error {
	return p.cleanMismatches(obj).ErrorOrNil()
}

// Check runs IsCorrectTarget and CanApplyCleanly and reports the mismatches of both,
// identity mismatches first.
func (p *Patch[T]) Check(obj *T) error {
	m := p.identityMismatches(obj)
	m.Merge(p.cleanMismatches(obj))
	return m.ErrorOrNil()
}

// Apply checks the patch against obj and, if it passes, writes every populated slot. On error
// obj is left untouched.
func (p *Patch[T]) Apply(obj *T) error {
	if err := p.Check(obj); err != nil {
		return err
	}
	next := make([]any, len(p.diffs))
	for i, d := range p.diffs {
		if d == nil {
			continue
		}
		f := p.schema.fields[i]
		v, err := f.diffApply(d, f.get(obj))
		if err != nil {
			return fmt.Errorf("applying field %s: %w", f.info().Name, err)
		}
		next[i] = v
	}
	for i, d := range p.diffs {
		if d == nil {
			continue
		}
		if err := p.schema.fields[i].set(obj, next[i]); err != nil {
			return err
		}
	}
	return nil
}

// IsApplied reports whether obj already reflects every real change of the patch.
func (p *Patch[T]) IsApplied(obj *T) bool {
	for i, d := range p.diffs {
		if d == nil {
			continue
		}
		f := p.schema.fields[i]
		if f.diffContainsChange(d) && !f.diffChangesObject(d, obj) {
			return false
		}
	}
	return true
}

// Cleanup drops every slot whose diff contains no change and reports whether any was dropped.
func (p *Patch[T]) Cleanup() bool {
	removed := false
	for i, d := range p.diffs {
		if d != nil && !p.schema.fields[i].diffContainsChange(d) {
			p.diffs[i] = nil
			removed = true
		}
	}
	return removed
}

// IsSameTarget reports whether both patches address the same record. Diffs are not compared.
func (p *Patch[T]) IsSameTarget(other *Patch[T]) bool {
	if other == nil || other.schema != p.schema {
		return false
	}
	for k, i := range p.schema.identity {
		if !p.schema.fields[i].equal(p.ids[k], other.ids[k]) {
			return false
		}
	}
	return true
}

// Merge folds rhs into p so that p represents p followed by rhs. Both must target the same
// record. On error p is unchanged.
func (p *Patch[T]) Merge(rhs *Patch[T]) error {
	if rhs == nil || rhs.schema != p.schema {
		return fmt.Errorf("%w: cannot merge patch of %s", ErrSchemaMismatch, p.schema.name)
	}
	if !p.IsSameTarget(rhs) {
		return fmt.Errorf("%w: %s and %s", ErrDifferentTarget, p.ObjectID(), rhs.ObjectID())
	}
	next := make([]any, len(p.diffs))
	for i, d := range p.diffs {
		f := p.schema.fields[i]
		r := rhs.diffs[i]
		switch {
		case d == nil && r == nil:
		case r == nil:
			next[i] = d
		case d == nil:
			next[i] = f.diffClone(r)
		default:
			merged := f.diffClone(d)
			if err := f.diffMerge(merged, r); err != nil {
				return err
			}
			next[i] = merged
		}
	}
	p.diffs = next
	return nil
}

// Clone returns an independent copy.
func (p *Patch[T]) Clone() *Patch[T] {
	c := &Patch[T]{schema: p.schema, ids: make([]any, len(p.ids)), diffs: make([]any, len(p.diffs))}
	for k, i := range p.schema.identity {
		c.ids[k] = p.schema.fields[i].copyValue(p.ids[k])
	}
	for i, d := range p.diffs {
		if d != nil {
			c.diffs[i] = p.schema.fields[i].diffClone(d)
		}
	}
	return c
}

func (p *Patch[T]) String() string {
	s := p.schema.name + "(" + p.ObjectID() + ")"
	for _, c := range p.Changes() {
		switch c.Kind {
		case KindCopy:
			s += fmt.Sprintf(" %s: %s -> %s", c.Field, formatValue(c.Old), formatValue(c.New))
		default:
			s += fmt.Sprintf(" %s: %s", c.Field, formatValue(c.Delta))
		}
	}
	return s
}
