// Package jsonpatch exports patches as RFC 6902 JSON Patch documents and RFC 7386 merge
// patches, so that stored JSON documents can be updated by tools that know nothing about
// schemas.
//
// Identity fields and copy diffs become "test" operations followed by "replace", which keeps
// the compare-and-swap semantics: a stored document that changed in the meantime fails to
// patch. Delta diffs need a base value to turn into an absolute one.
package jsonpatch

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Station-Manager/patch"
	rfc6902 "github.com/evanphx/json-patch"
	"github.com/goccy/go-json"
)

var (
	// ErrConflict is returned when a test operation fails against the document.
	ErrConflict = errors.New("jsonpatch: document does not match patch")
	// ErrDeltaNeedsBase is returned when a delta diff is exported without a base value.
	ErrDeltaNeedsBase = errors.New("jsonpatch: delta diff needs a base value")
)

// Operation is one RFC 6902 operation.
type Operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

type options struct {
	skipIdentity bool
	skipValues   bool
}

type Option func(*options)

// WithoutIdentityTests omits the test operations for identity fields.
func WithoutIdentityTests() Option { return func(o *options) { o.skipIdentity = true } }

// WithoutValueTests omits the test operations guarding each changed field.
func WithoutValueTests() Option { return func(o *options) { o.skipValues = true } }

// Pointer returns the JSON pointer of a top level member.
func Pointer(name string) string {
	return "/" + strings.NewReplacer("~", "~0", "/", "~1").Replace(name)
}

// Encode exports p. It fails with ErrDeltaNeedsBase when p holds a delta diff.
func Encode[T any](p *patch.Patch[T], opts ...Option) ([]Operation, error) {
	return encode(p, func(c patch.Change) (any, error) {
		return nil, fmt.Errorf("%w: field %s", ErrDeltaNeedsBase, c.Field)
	}, opts)
}

// EncodeAgainst exports p, resolving delta diffs against the values of base.
func EncodeAgainst[T any](p *patch.Patch[T], base *T, opts ...Option) ([]Operation, error) {
	s := p.Schema()
	return encode(p, func(c patch.Change) (any, error) {
		return s.Value(base, c.Field)
	}, opts)
}

func encode[T any](p *patch.Patch[T], base func(patch.Change) (any, error), opts []Option) ([]Operation, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s := p.Schema()
	var ops []Operation
	if !o.skipIdentity {
		ids := p.IdentityValues()
		for _, f := range s.Fields() {
			v, ok := ids[f.Name]
			if !ok {
				continue
			}
			op, err := operation("test", f.JSONName, v)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
	}
	for _, c := range p.Changes() {
		old, next := c.Old, c.New
		absent := false
		if c.Kind == patch.KindDelta {
			cur, err := base(c)
			if err != nil {
				return nil, err
			}
			// a member the document lacks counts from zero
			if cur == nil {
				absent = true
				cur = reflect.Zero(reflect.TypeOf(c.Delta)).Interface()
			}
			sum, err := addNumeric(cur, c.Delta)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", c.Field, err)
			}
			old, next = cur, sum
		}
		if !o.skipValues && !absent {
			op, err := operation("test", c.JSONName, old)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
		kind := "replace"
		if absent || old == nil || isJSONNull(old) {
			kind = "add"
		}
		op, err := operation(kind, c.JSONName, next)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func operation(kind, name string, v any) (Operation, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Operation{}, fmt.Errorf("encoding value of %s: %w", name, err)
	}
	return Operation{Op: kind, Path: Pointer(name), Value: raw}, nil
}

func isJSONNull(v any) bool {
	raw, err := json.Marshal(v)
	return err == nil && string(raw) == "null"
}

// addNumeric returns a + d for two values of the same numeric type.
func addNumeric(a, d any) (any, error) {
	av, dv := reflect.ValueOf(a), reflect.ValueOf(d)
	if !av.IsValid() || !dv.IsValid() || av.Type() != dv.Type() {
		return nil, fmt.Errorf("cannot add %T to %T", d, a)
	}
	out := reflect.New(av.Type()).Elem()
	switch av.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out.SetInt(av.Int() + dv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		out.SetUint(av.Uint() + dv.Uint())
	case reflect.Float32, reflect.Float64:
		out.SetFloat(av.Float() + dv.Float())
	default:
		return nil, fmt.Errorf("cannot add %T values", a)
	}
	return out.Interface(), nil
}

// Marshal renders operations as a JSON Patch document.
func Marshal(ops []Operation) ([]byte, error) {
	if ops == nil {
		ops = []Operation{}
	}
	return json.Marshal(ops)
}

// Apply applies operations to a JSON document. A failed test operation yields ErrConflict.
func Apply(doc []byte, ops []Operation) ([]byte, error) {
	raw, err := Marshal(ops)
	if err != nil {
		return nil, err
	}
	decoded, err := rfc6902.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding json patch: %w", err)
	}
	out, err := decoded.Apply(doc)
	if err != nil {
		if errors.Is(err, rfc6902.ErrTestFailed) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("applying json patch: %w", err)
	}
	return out, nil
}

// ApplyDocument applies p to a stored JSON object. Delta diffs are resolved against the values
// the document holds; a missing member counts as zero.
func ApplyDocument[T any](p *patch.Patch[T], doc []byte, opts ...Option) ([]byte, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(doc, &members); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	s := p.Schema()
	ops, err := encode(p, func(c patch.Change) (any, error) {
		f, _ := s.Field(c.Field)
		raw, ok := members[c.JSONName]
		if !ok {
			return nil, nil
		}
		pv := reflect.New(f.Type)
		if err := json.Unmarshal(raw, pv.Interface()); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", c.JSONName, err)
		}
		return pv.Elem().Interface(), nil
	}, opts)
	if err != nil {
		return nil, err
	}
	return Apply(doc, ops)
}

// CreateMergePatch returns the RFC 7386 merge patch that p produces on doc.
func CreateMergePatch[T any](p *patch.Patch[T], doc []byte) ([]byte, error) {
	patched, err := ApplyDocument(p, doc)
	if err != nil {
		return nil, err
	}
	out, err := rfc6902.CreateMergePatch(doc, patched)
	if err != nil {
		return nil, fmt.Errorf("creating merge patch: %w", err)
	}
	return out, nil
}

// MergeDocument applies an RFC 7386 merge patch to doc.
func MergeDocument(doc, merge []byte) ([]byte, error) {
	out, err := rfc6902.MergePatch(doc, merge)
	if err != nil {
		return nil, fmt.Errorf("applying merge patch: %w", err)
	}
	return out, nil
}
