package patch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaMismatch is returned when two values built from different schemas are combined.
var ErrSchemaMismatch = errors.New("patch: values belong to different schemas")

// Partial is a possibly incomplete record: one optional slot per value field, plus identity
// and forced fields that are always present.
type Partial[T any] struct {
	schema  *Schema[T]
	values  []any
	present []bool
}

// NewPartial returns an empty partial. Identity and forced fields hold their defaults.
func (s *Schema[T]) NewPartial() *Partial[T] {
	p := &Partial[T]{schema: s, values: make([]any, len(s.fields)), present: make([]bool, len(s.fields))}
	for i, f := range s.fields {
		if f.info().Role.alwaysPresent() {
			p.values[i] = f.defaultValue()
			p.present[i] = true
		}
	}
	return p
}

// PartialFrom returns a complete partial holding copies of every non-ignored field of obj.
func (s *Schema[T]) PartialFrom(obj T) *Partial[T] {
	p := &Partial[T]{schema: s, values: make([]any, len(s.fields)), present: make([]bool, len(s.fields))}
	for i, f := range s.fields {
		if f.info().Role == RoleIgnored {
			continue
		}
		p.values[i] = f.get(&obj)
		p.present[i] = true
	}
	return p
}

// Schema returns the schema the partial was created from.
func (p *Partial[T]) Schema() *Schema[T] { return p.schema }

// MaxFields returns the number of optional slots.
func (p *Partial[T]) MaxFields() int { return len(p.schema.values) }

// Count returns the number of populated optional slots.
func (p *Partial[T]) Count() int {
	n := 0
	for _, i := range p.schema.values {
		if p.present[i] {
			n++
		}
	}
	return n
}

func (p *Partial[T]) IsComplete() bool { return p.Count() == p.MaxFields() }
func (p *Partial[T]) IsEmpty() bool    { return p.Count() == 0 }

// Set stores a copy of v in the named slot. v must have the declared field type.
func (p *Partial[T]) Set(name string, v any) error {
	i, err := p.schema.index(name)
	if err != nil {
		return err
	}
	f := p.schema.fields[i]
	if f.info().Role == RoleIgnored {
		return fmt.Errorf("%w: %s field %s cannot be set", ErrFieldRole, RoleIgnored, name)
	}
	if err := f.check(v); err != nil {
		return err
	}
	p.values[i] = f.copyValue(v)
	p.present[i] = true
	return nil
}

// Unset clears an optional slot. Identity and forced fields cannot be unset.
func (p *Partial[T]) Unset(name string) error {
	i, err := p.schema.index(name)
	if err != nil {
		return err
	}
	if r := p.schema.fields[i].info().Role; r != RoleValue {
		return fmt.Errorf("%w: %s field %s cannot be unset", ErrFieldRole, r, name)
	}
	p.values[i] = nil
	p.present[i] = false
	return nil
}

// Get returns a copy of the named slot and whether it is populated.
func (p *Partial[T]) Get(name string) (any, bool) {
	i, ok := p.schema.byName[name]
	if !ok || !p.present[i] {
		return nil, false
	}
	return p.schema.fields[i].copyValue(p.values[i]), true
}

func (p *Partial[T]) Has(name string) bool {
	i, ok := p.schema.byName[name]
	return ok && p.present[i]
}

// Fields returns the populated field names in declaration order.
func (p *Partial[T]) Fields() []string {
	var out []string
	for i, f := range p.schema.fields {
		if p.present[i] {
			out = append(out, f.info().Name)
		}
	}
	return out
}

// Missing returns the unset optional field names in declaration order.
func (p *Partial[T]) Missing() []string {
	var out []string
	for _, i := range p.schema.values {
		if !p.present[i] {
			out = append(out, p.schema.fields[i].info().Name)
		}
	}
	return out
}

// MergeInto overwrites dst with every populated slot of p.
func (p *Partial[T]) MergeInto(dst *Partial[T]) error {
	if dst == nil || dst.schema != p.schema {
		return fmt.Errorf("%w: cannot merge partial of %s", ErrSchemaMismatch, p.schema.name)
	}
	for i, f := range p.schema.fields {
		if p.present[i] {
			dst.values[i] = f.copyValue(p.values[i])
			dst.present[i] = true
		}
	}
	return nil
}

// IsPartialEqualExisting reports whether every field populated in both partials compares equal.
func (p *Partial[T]) IsPartialEqualExisting(other *Partial[T]) bool {
	if other == nil || other.schema != p.schema {
		return false
	}
	for i, f := range p.schema.fields {
		if p.present[i] && other.present[i] && !f.equal(p.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

// Apply writes every populated optional slot into obj. Identity and forced fields are left alone.
func (p *Partial[T]) Apply(obj *T) {
	for _, i := range p.schema.values {
		if !p.present[i] {
			continue
		}
		// Set and the decoders type-check every stored value, so a failure here is a bug.
		if err := p.schema.fields[i].set(obj, p.values[i]); err != nil {
			panic(fmt.Errorf("patch: partial slot holds a mistyped value: %w", err))
		}
	}
}

// Build creates a record from a complete partial. Ignored fields receive their defaults and
// every written value passes the registered validators.
func (p *Partial[T]) Build() (T, error) {
	var obj T
	if !p.IsComplete() {
		return obj, NewIncompleteError("build", p.ObjectID(), p.Clone())
	}
	for i, f := range p.schema.fields {
		v := p.values[i]
		if !p.present[i] {
			v = f.defaultValue()
		}
		if err := p.schema.validate(i, v); err != nil {
			return obj, err
		}
		if err := f.set(&obj, v); err != nil {
			return obj, err
		}
	}
	return obj, nil
}

// ObjectID renders the identity fields the same way Schema.Identity does.
func (p *Partial[T]) ObjectID() string {
	vals := make([]any, len(p.schema.identity))
	for k, i := range p.schema.identity {
		vals[k] = p.values[i]
	}
	return p.schema.formatIdentity(vals)
}

// Clone returns an independent copy.
func (p *Partial[T]) Clone() *Partial[T] {
	c := &Partial[T]{schema: p.schema, values: make([]any, len(p.values)), present: append([]bool(nil), p.present...)}
	for i, f := range p.schema.fields {
		if p.present[i] {
			c.values[i] = f.copyValue(p.values[i])
		}
	}
	return c
}

func (p *Partial[T]) String() string {
	var sb strings.Builder
	sb.WriteString(p.schema.name)
	sb.WriteString("{")
	first := true
	for i, f := range p.schema.fields {
		if f.info().Role == RoleIgnored {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(f.info().Name)
		sb.WriteString(": ")
		if p.present[i] {
			sb.WriteString(formatValue(p.values[i]))
		} else {
			sb.WriteString("<unset>")
		}
	}
	sb.WriteString("}")
	return sb.String()
}
