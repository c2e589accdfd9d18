package patch

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrMalformedDocument is returned when a partial or patch document cannot be decoded.
var ErrMalformedDocument = errors.New("patch: malformed document")

// objectWriter writes a JSON object with keys in insertion order.
type objectWriter struct {
	buf   bytes.Buffer
	count int
}

func (w *objectWriter) field(key string, raw []byte) error {
	if w.count == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	w.count++
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(raw)
	return nil
}

func (w *objectWriter) value(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return w.field(key, raw)
}

func (w *objectWriter) bytes() []byte {
	if w.count == 0 {
		return []byte("{}")
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}

// MarshalJSON encodes the populated slots as one object keyed by document name.
func (p *Partial[T]) MarshalJSON() ([]byte, error) {
	var w objectWriter
	for i, f := range p.schema.fields {
		if !p.present[i] {
			continue
		}
		if err := w.value(f.info().JSONName, p.values[i]); err != nil {
			return nil, err
		}
	}
	return w.bytes(), nil
}

// DecodePartial decodes a document written by Partial.MarshalJSON. Keys may be document or
// field names.
func (s *Schema[T]) DecodePartial(data []byte) (*Partial[T], error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	p := s.NewPartial()
	for key, msg := range raw {
		i, ok := s.lookupDocument(key)
		if !ok {
			if s.opts.DisallowUnknownFields {
				return nil, fmt.Errorf("%w: %s has no field %s", ErrUnknownField, s.name, key)
			}
			continue
		}
		f := s.fields[i]
		if f.info().Role == RoleIgnored {
			continue
		}
		v, err := f.decodeValue(msg)
		if err != nil {
			return nil, err
		}
		if err := p.Set(f.info().Name, v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func encodeDiff(kind DiffKind, d any) ([]byte, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	k, err := kind.MarshalText()
	if err != nil {
		return nil, err
	}
	var w objectWriter
	if err := w.value("kind", string(k)); err != nil {
		return nil, err
	}
	out := w.buf.Bytes()
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

// MarshalJSON encodes the patch as {"schema":…,"target":{…},"fields":{name:{"kind":…,…}}}.
func (p *Patch[T]) MarshalJSON() ([]byte, error) {
	var target objectWriter
	for k, i := range p.schema.identity {
		if err := target.value(p.schema.fields[i].info().JSONName, p.ids[k]); err != nil {
			return nil, err
		}
	}
	var fields objectWriter
	for i, d := range p.diffs {
		if d == nil {
			continue
		}
		f := p.schema.fields[i]
		raw, err := encodeDiff(f.diffKind(d), d)
		if err != nil {
			return nil, fmt.Errorf("encoding diff of field %s: %w", f.info().Name, err)
		}
		if err := fields.field(f.info().JSONName, raw); err != nil {
			return nil, err
		}
	}
	var w objectWriter
	if err := w.value("schema", p.schema.name); err != nil {
		return nil, err
	}
	if err := w.field("target", target.bytes()); err != nil {
		return nil, err
	}
	if err := w.field("fields", fields.bytes()); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

type patchDocument struct {
	Schema string                     `json:"schema"`
	Target map[string]json.RawMessage `json:"target"`
	Fields map[string]json.RawMessage `json:"fields"`
}

// DecodePatch decodes a document written by Patch.MarshalJSON.
func (s *Schema[T]) DecodePatch(data []byte) (*Patch[T], error) {
	var doc patchDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if doc.Schema != "" && doc.Schema != s.name {
		return nil, fmt.Errorf("%w: document is a patch of %s, not %s", ErrSchemaMismatch, doc.Schema, s.name)
	}
	p := &Patch[T]{schema: s, ids: make([]any, len(s.identity)), diffs: make([]any, len(s.fields))}
	seen := make([]bool, len(s.identity))
	for key, msg := range doc.Target {
		i, ok := s.lookupDocument(key)
		if !ok || s.fields[i].info().Role != RoleIdentity {
			if s.opts.DisallowUnknownFields {
				return nil, fmt.Errorf("%w: %s has no identity field %s", ErrUnknownField, s.name, key)
			}
			continue
		}
		v, err := s.fields[i].decodeValue(msg)
		if err != nil {
			return nil, err
		}
		for k, j := range s.identity {
			if j == i {
				p.ids[k] = v
				seen[k] = true
			}
		}
	}
	for k, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: target lacks identity field %s", ErrMalformedDocument, s.fields[s.identity[k]].info().Name)
		}
	}
	for key, msg := range doc.Fields {
		i, ok := s.lookupDocument(key)
		if !ok {
			if s.opts.DisallowUnknownFields {
				return nil, fmt.Errorf("%w: %s has no field %s", ErrUnknownField, s.name, key)
			}
			continue
		}
		f := s.fields[i]
		if !f.info().Role.settable() {
			return nil, fmt.Errorf("%w: %s field %s has no diff slot", ErrFieldRole, f.info().Role, f.info().Name)
		}
		var head struct {
			Kind DiffKind `json:"kind"`
		}
		if err := json.Unmarshal(msg, &head); err != nil {
			return nil, fmt.Errorf("%w: field %s: %w", ErrMalformedDocument, f.info().Name, err)
		}
		d, err := f.decodeDiff(head.Kind, msg)
		if err != nil {
			return nil, err
		}
		p.diffs[i] = d
	}
	return p, nil
}
