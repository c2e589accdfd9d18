package patch

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Fields(t *testing.T) {
	s := recordSchema(t)
	assert.Equal(t, "record", s.Name())

	fields := s.Fields()
	require.Len(t, fields, 5)
	assert.Equal(t, FieldInfo{Name: "id", JSONName: "id", Role: RoleIdentity, Kind: KindCopy, Type: reflect.TypeOf(int64(0))}, fields[0])
	assert.Equal(t, KindDelta, fields[3].Kind)
	assert.Equal(t, RoleIgnored, fields[4].Role)

	f, ok := s.Field("bard")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf((*string)(nil)), f.Type)
	_, ok = s.Field("nope")
	assert.False(t, ok)
}

func TestBuilder_Value(t *testing.T) {
	s := recordSchema(t)
	obj := record{ID: 3, Food: 2.5}

	v, err := s.Value(&obj, "food")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	food, err := Value[float64](s, &obj, "food")
	require.NoError(t, err)
	assert.Equal(t, 2.5, food)

	_, err = Value[string](s, &obj, "food")
	assert.ErrorIs(t, err, ErrFieldType)
	_, err = s.Value(&obj, "nope")
	assert.ErrorIs(t, err, ErrUnknownField)

	bard, err := Value[*string](s, &obj, "bard")
	require.NoError(t, err)
	assert.Nil(t, bard)
}

func TestBuilder_Options(t *testing.T) {
	s := recordSchema(t, WithCaseInsensitiveNames(true), WithDisallowUnknownFields(true))
	o := s.Options()
	assert.True(t, o.CaseInsensitiveNames)
	assert.True(t, o.DisallowUnknownFields)
	assert.False(t, o.UnconditionalDiff)

	b := NewBuilder[record]("record").WithOptions(WithIgnoredFields("food"), nil)
	Field(b, "id", func(r *record) *int64 { return &r.ID })
	Field(b, "food", func(r *record) *float64 { return &r.Food })
	s = b.MustBuild()
	f, _ := s.Field("food")
	assert.Equal(t, RoleIgnored, f.Role)
}

func TestBuilder_RebuildKeepsEarlierSchemas(t *testing.T) {
	b := NewBuilder[record]("record")
	Field(b, "id", func(r *record) *int64 { return &r.ID }, AsIdentity())
	Field(b, "food", func(r *record) *float64 { return &r.Food })
	first := b.MustBuild()

	second := b.WithOptions(WithIdentityFields("food")).MustBuild()
	third := b.WithOptions(WithIgnoredFields("food")).MustBuild()

	f, _ := first.Field("food")
	assert.Equal(t, RoleValue, f.Role)
	assert.NoError(t, first.NewPartial().Unset("food"))

	f, _ = second.Field("food")
	assert.Equal(t, RoleIdentity, f.Role)
	assert.ErrorIs(t, second.NewPartial().Unset("food"), ErrFieldRole)

	f, _ = third.Field("food")
	assert.Equal(t, RoleIgnored, f.Role)
	f, _ = second.Field("food")
	assert.Equal(t, RoleIdentity, f.Role)
}

func TestBuilder_JSONName(t *testing.T) {
	b := NewBuilder[record]("record")
	Field(b, "id", func(r *record) *int64 { return &r.ID }, AsIdentity(), WithJSONName("record_id"))
	s := b.MustBuild()
	f, _ := s.Field("id")
	assert.Equal(t, "record_id", f.JSONName)
}

func TestBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		declare func(b *Builder[record])
		opts    []Option
	}{
		{
			name: "duplicate field",
			declare: func(b *Builder[record]) {
				Field(b, "food", func(r *record) *float64 { return &r.Food })
				Field(b, "food", func(r *record) *float64 { return &r.Food })
			},
		},
		{
			name: "empty name",
			declare: func(b *Builder[record]) {
				Field(b, "", func(r *record) *float64 { return &r.Food })
			},
		},
		{
			name: "nil accessor",
			declare: func(b *Builder[record]) {
				Field[record, float64](b, "food", nil)
			},
		},
		{
			name: "nil getter",
			declare: func(b *Builder[record]) {
				FieldFunc(b, "food", nil, func(r *record, v float64) { r.Food = v })
			},
		},
		{
			name: "default of wrong type",
			declare: func(b *Builder[record]) {
				Field(b, "food", func(r *record) *float64 { return &r.Food }, WithDefault(1))
			},
		},
		{
			name: "comparer of wrong type",
			declare: func(b *Builder[record]) {
				Field(b, "food", func(r *record) *float64 { return &r.Food }, WithComparer(EqualComparer[int]()))
			},
		},
		{
			name: "delta on identity",
			declare: func(b *Builder[record]) {
				Delta(b, "seen", func(r *record) *int { return &r.Seen }, AsIdentity())
			},
		},
		{
			name: "delta on ignored",
			declare: func(b *Builder[record]) {
				Delta(b, "seen", func(r *record) *int { return &r.Seen })
			},
			opts: []Option{WithIgnoredFields("seen")},
		},
		{
			name: "undeclared identity",
			declare: func(b *Builder[record]) {
				Field(b, "food", func(r *record) *float64 { return &r.Food })
			},
			opts: []Option{WithIdentityFields("id")},
		},
		{
			name: "undeclared ignored",
			declare: func(b *Builder[record]) {
				Field(b, "food", func(r *record) *float64 { return &r.Food })
			},
			opts: []Option{WithIgnoredFields("note")},
		},
		{
			name: "nil validator",
			declare: func(b *Builder[record]) {
				Field(b, "food", func(r *record) *float64 { return &r.Food })
				b.AddValidator("food", nil)
			},
		},
		{
			name: "validator for undeclared field",
			declare: func(b *Builder[record]) {
				Field(b, "food", func(r *record) *float64 { return &r.Food })
				b.AddValidator("seen", func(any) error { return nil })
			},
		},
		{
			name: "shared document name",
			declare: func(b *Builder[record]) {
				Field(b, "food", func(r *record) *float64 { return &r.Food })
				Field(b, "note", func(r *record) *string { return &r.Note }, WithJSONName("food"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder[record]("record", tt.opts...)
			tt.declare(b)
			_, err := b.Build()
			assert.ErrorIs(t, err, ErrInvalidSchema)
			assert.Panics(t, func() { b.MustBuild() })
		})
	}
}

func TestBuilder_ReportsAllErrors(t *testing.T) {
	b := NewBuilder[record]("record")
	Field(b, "", func(r *record) *float64 { return &r.Food })
	Delta(b, "seen", func(r *record) *int { return &r.Seen }, AsIdentity())
	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty field name")
	assert.Contains(t, err.Error(), "seen cannot be delta diffed")
}

func TestBuilder_FieldFuncOverMap(t *testing.T) {
	type doc map[string]any
	b := NewBuilder[doc]("doc")
	FieldFunc(b, "name",
		func(d *doc) string { v, _ := (*d)["name"].(string); return v },
		func(d *doc, v string) {
			if *d == nil {
				*d = doc{}
			}
			(*d)["name"] = v
		})
	DeltaFunc(b, "hits",
		func(d *doc) int { v, _ := (*d)["hits"].(int); return v },
		func(d *doc, v int) {
			if *d == nil {
				*d = doc{}
			}
			(*d)["hits"] = v
		})
	s := b.MustBuild()

	old := doc{"name": "a", "hits": 1}
	p := s.Diff(old, doc{"name": "b", "hits": 4})

	target := doc{"name": "a", "hits": 10}
	require.NoError(t, p.Apply(&target))
	assert.Equal(t, doc{"name": "b", "hits": 13}, target)
	assert.Equal(t, doc{"name": "a", "hits": 1}, old)

	stale := doc{"name": "z", "hits": 0}
	require.Error(t, p.Apply(&stale))
	assert.Equal(t, doc{"name": "z", "hits": 0}, stale)

	var empty doc
	p2 := s.NewPartial()
	require.NoError(t, p2.Set("name", "c"))
	p2.Apply(&empty)
	assert.Equal(t, doc{"name": "c"}, empty)
}
