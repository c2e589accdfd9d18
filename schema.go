package patch

import (
	"fmt"
	"strings"
)

// Schema describes the fields of a record type T and creates Partials and Patches for it.
// A Schema is immutable and safe for concurrent use.
type Schema[T any] struct {
	name   string
	opts   Options
	fields []fieldDef[T]

	byName map[string]int
	byJSON map[string]int
	byFold map[string]int // lower-cased document names

	identity []int
	values   []int
	settable []int
	ignored  []int

	validators map[int][]ValidatorFunc
}

// Name returns the schema name.
func (s *Schema[T]) Name() string { return s.name }

// Options returns the options the schema was built with.
func (s *Schema[T]) Options() Options { return s.opts }

// Fields returns all declared fields in declaration order.
func (s *Schema[T]) Fields() []FieldInfo {
	out := make([]FieldInfo, len(s.fields))
	for i, f := range s.fields {
		out[i] = *f.info()
	}
	return out
}

// Field returns the declaration of a field.
func (s *Schema[T]) Field(name string) (FieldInfo, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldInfo{}, false
	}
	return *s.fields[i].info(), true
}

// Value returns a copy of the named field of obj.
func (s *Schema[T]) Value(obj *T, name string) (any, error) {
	i, err := s.index(name)
	if err != nil {
		return nil, err
	}
	return s.fields[i].get(obj), nil
}

// Identity renders the identity fields of obj. A single identity field renders as its value,
// several as name=value pairs joined by commas. Without identity fields the schema name is
// returned.
func (s *Schema[T]) Identity(obj *T) string {
	vals := make([]any, len(s.identity))
	for k, i := range s.identity {
		vals[k] = s.fields[i].get(obj)
	}
	return s.formatIdentity(vals)
}

func (s *Schema[T]) formatIdentity(vals []any) string {
	switch len(s.identity) {
	case 0:
		return s.name
	case 1:
		return formatValue(vals[0])
	}
	parts := make([]string, len(s.identity))
	for k, i := range s.identity {
		parts[k] = s.fields[i].info().Name + "=" + formatValue(vals[k])
	}
	return strings.Join(parts, ",")
}

func (s *Schema[T]) index(name string) (int, error) {
	if i, ok := s.byName[name]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("%w: %s has no field %s", ErrUnknownField, s.name, name)
}

// lookupDocument resolves a document key. Field names are accepted as well as document names.
func (s *Schema[T]) lookupDocument(key string) (int, bool) {
	if i, ok := s.byJSON[key]; ok {
		return i, true
	}
	if i, ok := s.byName[key]; ok {
		return i, true
	}
	if s.opts.CaseInsensitiveNames {
		i, ok := s.byFold[strings.ToLower(key)]
		return i, ok
	}
	return 0, false
}

func (s *Schema[T]) validate(i int, v any) error {
	for _, fn := range s.validators[i] {
		if err := fn(v); err != nil {
			return fmt.Errorf("validating field %s: %w", s.fields[i].info().Name, err)
		}
	}
	return nil
}
