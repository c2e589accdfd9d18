package patch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema is returned by Builder.Build for an inconsistent field declaration.
var ErrInvalidSchema = errors.New("patch: invalid schema")

// ValidatorFunc validates a value Partial.Build is about to write.
type ValidatorFunc func(value any) error

// Builder provides a fluent API to declare the fields of a record type T and build a Schema.
// Field declarations are generic and therefore live in the free functions Field, Delta,
// FieldFunc and DeltaFunc.
type Builder[T any] struct {
	name   string
	opts   []Option
	fields []fieldDef[T]
	vals   map[string][]ValidatorFunc
	errs   []error
}

// NewBuilder creates a builder for the record type T. name identifies the schema in documents.
func NewBuilder[T any](name string, opts ...Option) *Builder[T] {
	return &Builder[T]{name: name, opts: opts, vals: make(map[string][]ValidatorFunc)}
}

// WithOptions appends schema options to the builder.
func (b *Builder[T]) WithOptions(opts ...Option) *Builder[T] {
	b.opts = append(b.opts, opts...)
	return b
}

// AddValidator registers a validator by field name. Several validators per field run in
// registration order.
func (b *Builder[T]) AddValidator(field string, fn ValidatorFunc) *Builder[T] {
	if fn == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: nil validator for field %s", ErrInvalidSchema, field))
		return b
	}
	b.vals[field] = append(b.vals[field], fn)
	return b
}

func (b *Builder[T]) add(f fieldDef[T], err error) *Builder[T] {
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.fields = append(b.fields, f)
	return b
}

func settings(opts []FieldOption) fieldSettings {
	var s fieldSettings
	for _, o := range opts {
		if o != nil {
			o(&s)
		}
	}
	return s
}

// Field declares a copy-diffed field stored at ptr(obj).
func Field[T, F any](b *Builder[T], name string, ptr func(*T) *F, opts ...FieldOption) *Builder[T] {
	if ptr == nil {
		return b.add(nil, fmt.Errorf("%w: field %s has no accessor", ErrInvalidSchema, name))
	}
	return FieldFunc(b, name, func(t *T) F { return *ptr(t) }, func(t *T, v F) { *ptr(t) = v }, opts...)
}

// FieldFunc declares a copy-diffed field through a getter and a setter. Use it when the value
// is not addressable, e.g. a map entry.
func FieldFunc[T, F any](b *Builder[T], name string, get func(*T) F, set func(*T, F), opts ...FieldOption) *Builder[T] {
	f, err := newTypedField(name, KindCopy, settings(opts), get, set)
	return b.add(f, err)
}

// Delta declares a numeric field whose patch slot holds a NumericDistanceDiff.
func Delta[T any, F Numeric](b *Builder[T], name string, ptr func(*T) *F, opts ...FieldOption) *Builder[T] {
	if ptr == nil {
		return b.add(nil, fmt.Errorf("%w: field %s has no accessor", ErrInvalidSchema, name))
	}
	return DeltaFunc(b, name, func(t *T) F { return *ptr(t) }, func(t *T, v F) { *ptr(t) = v }, opts...)
}

// DeltaFunc is Delta through a getter and a setter.
func DeltaFunc[T any, F Numeric](b *Builder[T], name string, get func(*T) F, set func(*T, F), opts ...FieldOption) *Builder[T] {
	f, err := newTypedField(name, KindDelta, settings(opts), get, set)
	if err != nil {
		return b.add(nil, err)
	}
	withDelta(f)
	return b.add(f, nil)
}

func withDelta[T any, F Numeric](f *typedField[T, F]) {
	f.meta.Kind = KindDelta
	f.newDiffFn = func(old, new F) Diff[F] { return NewNumericDistanceDiff(old, new) }
	f.emptyDelta = func() Diff[F] { return NewDelta[F](0) }
}

// Build validates the declarations and returns an immutable Schema.
func (b *Builder[T]) Build() (*Schema[T], error) {
	var o Options
	for _, opt := range b.opts {
		if opt != nil {
			opt(&o)
		}
	}
	errs := append([]error(nil), b.errs...)

	fields := make([]fieldDef[T], len(b.fields))
	for i, f := range b.fields {
		fields[i] = f.clone()
	}
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := byName[f.info().Name]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate field %s", ErrInvalidSchema, f.info().Name))
			continue
		}
		byName[f.info().Name] = i
	}
	for _, name := range o.IdentityFields {
		if i, ok := byName[name]; ok {
			fields[i].setRole(RoleIdentity)
		} else {
			errs = append(errs, fmt.Errorf("%w: identity field %s is not declared", ErrInvalidSchema, name))
		}
	}
	for _, name := range o.IgnoredFields {
		if i, ok := byName[name]; ok {
			fields[i].setRole(RoleIgnored)
		} else {
			errs = append(errs, fmt.Errorf("%w: ignored field %s is not declared", ErrInvalidSchema, name))
		}
	}
	for name := range b.vals {
		if _, ok := byName[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: validator for undeclared field %s", ErrInvalidSchema, name))
		}
	}

	s := &Schema[T]{
		name:       b.name,
		opts:       o,
		fields:     fields,
		byName:     make(map[string]int, len(b.fields)),
		byJSON:     make(map[string]int, len(b.fields)),
		byFold:     make(map[string]int, len(b.fields)),
		validators: make(map[int][]ValidatorFunc, len(b.vals)),
	}
	for i, f := range s.fields {
		fi := f.info()
		if _, dup := s.byName[fi.Name]; dup {
			continue
		}
		if fi.Kind == KindDelta && !fi.Role.settable() {
			errs = append(errs, fmt.Errorf("%w: %s field %s cannot be delta diffed", ErrInvalidSchema, fi.Role, fi.Name))
		}
		if j, dup := s.byJSON[fi.JSONName]; dup {
			errs = append(errs, fmt.Errorf("%w: fields %s and %s share the document name %s", ErrInvalidSchema, s.fields[j].info().Name, fi.Name, fi.JSONName))
		}
		s.byName[fi.Name] = i
		s.byJSON[fi.JSONName] = i
		if _, ok := s.byFold[strings.ToLower(fi.JSONName)]; !ok {
			s.byFold[strings.ToLower(fi.JSONName)] = i
		}
		switch fi.Role {
		case RoleIdentity:
			s.identity = append(s.identity, i)
		case RoleValue:
			s.values = append(s.values, i)
		case RoleIgnored:
			s.ignored = append(s.ignored, i)
		}
		if fi.Role.settable() {
			s.settable = append(s.settable, i)
		}
		if fn := b.vals[fi.Name]; len(fn) > 0 {
			s.validators[i] = append([]ValidatorFunc(nil), fn...)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// MustBuild is like Build but panics on an invalid declaration.
func (b *Builder[T]) MustBuild() *Schema[T] {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
