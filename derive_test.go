package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MHz float64

type Audit struct {
	Version int `json:"version"`
}

type Meta struct {
	Source string `json:"source"`
}

type account struct {
	ID      int64    `json:"id" patch:"id"`
	Balance float64  `json:"balance" patch:"delta"`
	Owner   string   `json:"owner,omitempty"`
	Kind    string   `patch:"forced" default:"\"basic\""`
	Tags    []string `json:"tags"`
	Freq    MHz      `json:"freq" patch:"delta"`
	Cache   []byte   `patch:"-"`
	secret  string
	Audit
	*Meta
}

func TestDerive_Fields(t *testing.T) {
	s, err := Derive[account]()
	require.NoError(t, err)
	assert.Equal(t, "account", s.Name())

	type want struct {
		name, json string
		role       Role
		kind       DiffKind
	}
	expected := []want{
		{"ID", "id", RoleIdentity, KindCopy},
		{"Balance", "balance", RoleValue, KindDelta},
		{"Owner", "owner", RoleValue, KindCopy},
		{"Kind", "Kind", RoleForced, KindCopy},
		{"Tags", "tags", RoleValue, KindCopy},
		{"Freq", "freq", RoleValue, KindDelta},
		{"Cache", "Cache", RoleIgnored, KindCopy},
		{"Version", "version", RoleValue, KindCopy},
		{"Source", "source", RoleValue, KindCopy},
	}
	fields := s.Fields()
	require.Len(t, fields, len(expected))
	for i, w := range expected {
		assert.Equal(t, w.name, fields[i].Name)
		assert.Equal(t, w.json, fields[i].JSONName, w.name)
		assert.Equal(t, w.role, fields[i].Role, w.name)
		assert.Equal(t, w.kind, fields[i].Kind, w.name)
	}

	again := MustDerive[account]()
	assert.Equal(t, s.Fields(), again.Fields())
}

func TestDerive_Defaults(t *testing.T) {
	s := MustDerive[account]()
	p := s.NewPartial()
	kind, ok := GetValue[string](p, "Kind")
	require.True(t, ok)
	assert.Equal(t, "basic", kind)
	assert.Equal(t, "0", p.ObjectID())
}

func TestDerive_DiffAndApply(t *testing.T) {
	s := MustDerive[account]()
	old := account{ID: 1, Balance: 10, Owner: "ann", Kind: "basic", Tags: []string{"a"}, Freq: 14.074}
	next := old
	next.Balance = 12.5
	next.Tags = []string{"a", "b"}
	next.Freq = 14.076
	next.Version = 2
	next.Meta = &Meta{Source: "import"}
	next.Cache = []byte("ignored")

	p := s.Diff(old, next)
	assert.Equal(t, []string{"Balance", "Tags", "Freq", "Version", "Source"}, p.Fields())

	target := old
	target.Balance = 100
	target.Tags = []string{"a"}
	require.NoError(t, p.Apply(&target))

	assert.Equal(t, 102.5, target.Balance)
	assert.Equal(t, []string{"a", "b"}, target.Tags)
	assert.InDelta(t, 14.076, float64(target.Freq), 1e-9)
	assert.Equal(t, 2, target.Version)
	require.NotNil(t, target.Meta)
	assert.Equal(t, "import", target.Meta.Source)
	assert.Nil(t, target.Cache)
	assert.Equal(t, []string{"a"}, old.Tags)
}

func TestDerive_NamedScalar(t *testing.T) {
	s := MustDerive[account]()
	obj := account{Freq: 7.074}

	f, ok := s.Field("Freq")
	require.True(t, ok)
	assert.Equal(t, "float64", f.Type.String())

	v, err := Value[float64](s, &obj, "Freq")
	require.NoError(t, err)
	assert.Equal(t, 7.074, v)

	p := s.NewPartial()
	require.NoError(t, p.Set("Freq", 3.5))
	p.Apply(&obj)
	assert.Equal(t, MHz(3.5), obj.Freq)
	assert.ErrorIs(t, p.Set("Freq", MHz(1)), ErrFieldType)
}

func TestDerive_NilEmbeddedPointer(t *testing.T) {
	s := MustDerive[account]()
	var obj account
	v, err := Value[string](s, &obj, "Source")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Nil(t, obj.Meta)

	p := s.NewPartial()
	require.NoError(t, p.Set("Source", "cli"))
	p.Apply(&obj)
	require.NotNil(t, obj.Meta)
	assert.Equal(t, "cli", obj.Meta.Source)
}

func TestDerive_ReflectedField(t *testing.T) {
	s := MustDerive[account]()
	f, _ := s.Field("Tags")
	assert.Equal(t, "[]string", f.Type.String())

	p := s.NewPartial()
	assert.ErrorIs(t, p.Set("Tags", "x"), ErrFieldType)
	require.NoError(t, p.Set("Tags", nil))
	require.NoError(t, p.Set("Tags", []string{"x"}))

	data, err := p.MarshalJSON()
	require.NoError(t, err)
	back, err := s.DecodePartial(data)
	require.NoError(t, err)
	tags, ok := GetValue[any](back, "Tags")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, tags)
}

type badWord struct {
	A int `patch:"sometimes"`
}

type badRoles struct {
	A int `patch:"id,forced"`
}

type badDeltaString struct {
	A string `patch:"delta"`
}

type badDeltaSlice struct {
	A []int `patch:"delta"`
}

type badDefault struct {
	A int `default:"x"`
}

type plainDefault struct {
	A string `patch:"forced" default:"plain"`
	B int    `patch:"forced,delta" default:"5"`
}

func TestDerive_Errors(t *testing.T) {
	tests := []struct {
		name   string
		derive func() error
	}{
		{name: "unknown tag word", derive: func() error { _, err := Derive[badWord](); return err }},
		{name: "conflicting roles", derive: func() error { _, err := Derive[badRoles](); return err }},
		{name: "delta on string", derive: func() error { _, err := Derive[badDeltaString](); return err }},
		{name: "delta on slice", derive: func() error { _, err := Derive[badDeltaSlice](); return err }},
		{name: "undecodable default", derive: func() error { _, err := Derive[badDefault](); return err }},
		{name: "not a struct", derive: func() error { _, err := Derive[int](); return err }},
		{name: "unknown identity option", derive: func() error {
			_, err := Derive[account](WithIdentityFields("Missing"))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.derive(), ErrInvalidSchema)
		})
	}
	assert.Panics(t, func() { MustDerive[badWord]() })
}

func TestDerive_PlainStringDefault(t *testing.T) {
	s := MustDerive[plainDefault]()
	p := s.NewPartial()
	a, _ := GetValue[string](p, "A")
	b, _ := GetValue[int](p, "B")
	assert.Equal(t, "plain", a)
	assert.Equal(t, 5, b)

	f, _ := s.Field("B")
	assert.Equal(t, RoleForced, f.Role)
	assert.Equal(t, KindDelta, f.Kind)
}

type Stamp struct {
	ID      int64
	Created string
	Note    string
}

type Extra struct {
	Note string
}

type shadowed struct {
	Stamp
	Extra
	ID    string `json:"id" patch:"id"`
	Owner string
}

func TestDerive_OuterFieldShadowsEmbedded(t *testing.T) {
	s, err := Derive[shadowed]()
	require.NoError(t, err)

	var names []string
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Created", "ID", "Owner"}, names)

	id, ok := s.Field("ID")
	require.True(t, ok)
	assert.Equal(t, RoleIdentity, id.Role)
	assert.Equal(t, "string", id.Type.String())

	target := shadowed{ID: "a", Stamp: Stamp{ID: 1}}
	p := s.NewPatch(target)
	assert.NoError(t, p.IsCorrectTarget(&target))

	other := shadowed{ID: "b", Stamp: Stamp{ID: 1}}
	assert.Error(t, p.IsCorrectTarget(&other))
}

type Loop struct {
	Name string
	*Loop
}

func TestDerive_EmbeddingCycle(t *testing.T) {
	s, err := Derive[Loop]()
	require.NoError(t, err)
	require.Len(t, s.Fields(), 1)
	assert.Equal(t, "Name", s.Fields()[0].Name)

	obj := Loop{Name: "a"}
	v, err := Value[string](s, &obj, "Name")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}
