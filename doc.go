// Package patch records, checks and applies field-level changes to records.
//
// A Diff describes the change of a single field. Two kinds exist:
//   - CopyDiff stores the old and the new value and applies only while the field still holds
//     the old value, which detects concurrent modification.
//   - NumericDistanceDiff stores new minus old and applies to any current value by addition.
//
// A Schema describes the fields of a record type and creates two whole-record values from it:
//   - Partial holds one optional slot per value field and can be built into a record once all
//     slots are populated.
//   - Patch holds the identity of the record it targets and at most one Diff per settable field.
//
// Basic Usage
//
//	type Stock struct {
//	    SKU   string  `json:"sku" patch:"id"`
//	    Price float64 `json:"price"`
//	    Count int     `json:"count" patch:"delta"`
//	}
//
//	schema := patch.MustDerive[Stock]()
//	p := schema.Diff(before, after)
//	if err := p.Check(&current); err != nil {
//	    // err is a *patch.MultipleMismatchError listing every conflict
//	}
//	err := p.Apply(&current)
//
// # Declaring Schemas
//
// Derive reads struct tags. For types you cannot tag, or records that are not structs, declare
// the fields with a Builder:
//
//	b := patch.NewBuilder[Stock]("stock")
//	patch.Field(b, "sku", func(s *Stock) *string { return &s.SKU }, patch.AsIdentity())
//	patch.Field(b, "price", func(s *Stock) *float64 { return &s.Price })
//	patch.Delta(b, "count", func(s *Stock) *int { return &s.Count })
//	schema, err := b.Build()
//
// # Field Roles
//
//   - RoleValue fields are optional in a Partial and diffable in a Patch.
//   - RoleIdentity fields are always present in a Partial and identify the target of a Patch.
//   - RoleForced fields are always present in a Partial and diffable in a Patch.
//   - RoleIgnored fields take no part; Partial.Build writes their default.
//
// # Comparison
//
// Values are compared with go-cmp. Building with the epsilon_compare tag makes float32 and
// float64 values compare equal when they differ by less than the machine epsilon of their type.
// Per-field comparers can be set with WithComparer.
//
// # Thread Safety
//
// A Schema is immutable and safe for concurrent use. Diffs, Partials and Patches are plain
// values owned by the caller and must not be mutated by two goroutines at once.
package patch
