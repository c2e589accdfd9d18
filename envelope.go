package patch

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Document kinds carried by an Envelope.
const (
	EnvelopePatch   = "patch"
	EnvelopePartial = "partial"
)

// Envelope wraps an encoded Patch or Partial for storage or transmission.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Schema    string          `json:"schema"`
	ObjectID  string          `json:"object_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

func seal(kind, schema, objectID string, payload json.Marshaler) (*Envelope, error) {
	raw, err := payload.MarshalJSON()
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generating envelope id: %w", err)
	}
	return &Envelope{ID: id, Kind: kind, Schema: schema, ObjectID: objectID, CreatedAt: time.Now().UTC(), Payload: raw}, nil
}

// SealPatch wraps p in a new envelope.
func SealPatch[T any](p *Patch[T]) (*Envelope, error) {
	return seal(EnvelopePatch, p.schema.name, p.ObjectID(), p)
}

// SealPartial wraps p in a new envelope.
func SealPartial[T any](p *Partial[T]) (*Envelope, error) {
	return seal(EnvelopePartial, p.schema.name, p.ObjectID(), p)
}

func (e *Envelope) expect(kind, schema string) error {
	if e.Kind != kind {
		return fmt.Errorf("%w: envelope %s holds a %s, not a %s", ErrMalformedDocument, e.ID, e.Kind, kind)
	}
	if e.Schema != schema {
		return fmt.Errorf("%w: envelope %s is for %s, not %s", ErrSchemaMismatch, e.ID, e.Schema, schema)
	}
	return nil
}

// OpenPatch decodes the patch held by e.
func OpenPatch[T any](s *Schema[T], e *Envelope) (*Patch[T], error) {
	if err := e.expect(EnvelopePatch, s.name); err != nil {
		return nil, err
	}
	return s.DecodePatch(e.Payload)
}

// OpenPartial decodes the partial held by e.
func OpenPartial[T any](s *Schema[T], e *Envelope) (*Partial[T], error) {
	if err := e.expect(EnvelopePartial, s.name); err != nil {
		return nil, err
	}
	return s.DecodePartial(e.Payload)
}
