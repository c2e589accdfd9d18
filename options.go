package patch

import "fmt"

// Options configure a Schema.
type Options struct {
	UnconditionalDiff     bool     // Schema.Diff records a diff for every settable field, changed or not
	CaseInsensitiveNames  bool     // document decoding matches field names case-insensitively
	DisallowUnknownFields bool     // document decoding rejects names the schema does not declare
	IdentityFields        []string // fields promoted to RoleIdentity by name
	IgnoredFields         []string // fields demoted to RoleIgnored by name
}

type Option func(*Options)

func WithUnconditionalDiff(v bool) Option { return func(o *Options) { o.UnconditionalDiff = v } }
func WithCaseInsensitiveNames(v bool) Option {
	return func(o *Options) { o.CaseInsensitiveNames = v }
}
func WithDisallowUnknownFields(v bool) Option {
	return func(o *Options) { o.DisallowUnknownFields = v }
}
func WithIdentityFields(names ...string) Option {
	return func(o *Options) { o.IdentityFields = append(o.IdentityFields, names...) }
}
func WithIgnoredFields(names ...string) Option {
	return func(o *Options) { o.IgnoredFields = append(o.IgnoredFields, names...) }
}

// Role says how a field takes part in partials and patches.
type Role uint8

const (
	RoleValue    Role = iota // optional slot in a Partial, diff slot in a Patch
	RoleIdentity             // always present in a Partial, compared by Patch.IsCorrectTarget, never diffed
	RoleForced               // always present in a Partial, diffable in a Patch
	RoleIgnored              // not part of partials or patches; Partial.Build writes its default
)

func (r Role) String() string {
	switch r {
	case RoleValue:
		return "value"
	case RoleIdentity:
		return "identity"
	case RoleForced:
		return "forced"
	case RoleIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

func (r Role) settable() bool      { return r == RoleValue || r == RoleForced }
func (r Role) alwaysPresent() bool { return r == RoleIdentity || r == RoleForced }

// FieldOption configures a single field declaration.
type FieldOption func(*fieldSettings)

type fieldSettings struct {
	role     Role
	jsonName string
	comparer any
	def      any
	hasDef   bool
}

func AsIdentity() FieldOption { return func(s *fieldSettings) { s.role = RoleIdentity } }
func AsForced() FieldOption   { return func(s *fieldSettings) { s.role = RoleForced } }
func AsIgnored() FieldOption  { return func(s *fieldSettings) { s.role = RoleIgnored } }

// WithJSONName sets the name used in documents. It defaults to the field name.
func WithJSONName(name string) FieldOption { return func(s *fieldSettings) { s.jsonName = name } }

// WithComparer replaces DefaultComparer for the field.
func WithComparer[F any](c Comparer[F]) FieldOption {
	return func(s *fieldSettings) { s.comparer = c }
}

// WithDefault sets the value forced fields start with and ignored fields are built with.
func WithDefault[F any](v F) FieldOption {
	return func(s *fieldSettings) { s.def, s.hasDef = v, true }
}
