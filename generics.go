package patch

import "fmt"

// Typed accessors as top-level functions (methods cannot have type parameters)

// GetValue returns the named slot of a partial as F.
func GetValue[F, T any](p *Partial[T], name string) (F, bool) {
	var zero F
	v, ok := p.Get(name)
	if !ok {
		return zero, false
	}
	if v == nil {
		return zero, true
	}
	f, ok := v.(F)
	return f, ok
}

// SetValue stores v in the named slot of a partial.
func SetValue[F, T any](p *Partial[T], name string, v F) error { return p.Set(name, v) }

// SetDiff stores a copy of d in the named slot of a patch. d must be a Diff of the declared
// field type.
func SetDiff[F, T any](p *Patch[T], name string, d Diff[F]) error {
	if d == nil {
		return fmt.Errorf("%w: nil diff for field %s", ErrFieldType, name)
	}
	return p.setDiff(name, d)
}

// DiffOf returns a copy of the diff stored in the named slot of a patch.
func DiffOf[F, T any](p *Patch[T], name string) (Diff[F], bool) {
	i, ok := p.schema.byName[name]
	if !ok || p.diffs[i] == nil {
		return nil, false
	}
	d, ok := p.diffs[i].(Diff[F])
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Value returns the named field of obj as F.
func Value[F, T any](s *Schema[T], obj *T, name string) (F, error) {
	var zero F
	v, err := s.Value(obj, name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	f, ok := v.(F)
	if !ok {
		return zero, fmt.Errorf("%w: field %s holds %T", ErrFieldType, name, v)
	}
	return f, nil
}
