package patch

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// derivedField is the reflected declaration of one struct field.
type derivedField struct {
	index    []int
	name     string
	jsonName string
	typ      reflect.Type
	role     Role
	delta    bool
	def      string
	hasDef   bool
}

type derivedMetadata struct {
	fields []derivedField
	err    error
}

var deriveCache sync.Map // map[reflect.Type]*derivedMetadata

// Derive builds a schema for the struct type T from its field tags:
//
//	type Account struct {
//	    ID      int64   `json:"id" patch:"id"`
//	    Balance float64 `json:"balance" patch:"delta"`
//	    Owner   string  `json:"owner"`
//	    Kind    string  `patch:"forced" default:"\"basic\""`
//	    Cache   []byte  `patch:"-"`
//	}
//
// Tag words are id, forced, delta and ignore (or "-"); they can be combined with commas, e.g.
// patch:"forced,delta". The json tag supplies the document name and default:"…" a JSON encoded
// default. Embedded structs, including pointers, are flattened following Go's promotion
// rules, so an outer field shadows an embedded one of the same name. Unexported fields are
// skipped. Fields of a named scalar type are exposed as their underlying builtin type, so a
// field of type `type MHz float64` is read and set as float64.
func Derive[T any](opts ...Option) (*Schema[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: cannot derive from %s, not a struct", ErrInvalidSchema, typ)
	}
	meta := getOrBuildMetadata(typ)
	if meta.err != nil {
		return nil, meta.err
	}
	b := NewBuilder[T](typ.Name(), opts...)
	for i := range meta.fields {
		addDerived(b, &meta.fields[i])
	}
	return b.Build()
}

// MustDerive is like Derive but panics on error.
func MustDerive[T any](opts ...Option) *Schema[T] {
	s, err := Derive[T](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func getOrBuildMetadata(typ reflect.Type) *derivedMetadata {
	if cached, ok := deriveCache.Load(typ); ok {
		return cached.(*derivedMetadata)
	}
	meta := &derivedMetadata{}
	meta.err = buildFieldMetadata(typ, meta)
	actual, _ := deriveCache.LoadOrStore(typ, meta)
	return actual.(*derivedMetadata)
}

// fieldCandidate is a struct field reachable from the derived type, possibly through embedded
// structs. Embedded structs are candidates too: their name shadows deeper fields.
type fieldCandidate struct {
	index    []int
	field    reflect.StructField
	owner    reflect.Type
	embedded bool
}

// buildFieldMetadata applies Go's promotion rule: per name the shallowest field wins, and
// names shared by several fields at that depth are dropped.
func buildFieldMetadata(typ reflect.Type, meta *derivedMetadata) error {
	var cands []fieldCandidate
	collectFields(typ, nil, map[reflect.Type]bool{typ: true}, &cands)

	depth := make(map[string]int, len(cands))
	count := make(map[string]int, len(cands))
	for _, c := range cands {
		d, ok := depth[c.field.Name]
		switch {
		case !ok || len(c.index) < d:
			depth[c.field.Name], count[c.field.Name] = len(c.index), 1
		case len(c.index) == d:
			count[c.field.Name]++
		}
	}

	for _, c := range cands {
		name := c.field.Name
		if c.embedded || c.field.PkgPath != "" || len(c.index) != depth[name] || count[name] != 1 {
			continue
		}
		df := derivedField{index: c.index, name: name, jsonName: name, typ: c.field.Type}
		if jt, ok := c.field.Tag.Lookup("json"); ok {
			if j := strings.IndexByte(jt, ','); j >= 0 {
				jt = jt[:j]
			}
			if jt != "" && jt != "-" {
				df.jsonName = jt
			}
		}
		if err := parsePatchTag(c.field.Tag.Get("patch"), &df); err != nil {
			return fmt.Errorf("%w: %s.%s: %w", ErrInvalidSchema, c.owner.Name(), name, err)
		}
		df.def, df.hasDef = c.field.Tag.Lookup("default")
		meta.fields = append(meta.fields, df)
	}
	return nil
}

// collectFields lists the fields of typ in declaration order, descending into untagged
// embedded structs. path holds the struct types being walked and stops embedding cycles.
func collectFields(typ reflect.Type, prefix []int, path map[reflect.Type]bool, out *[]fieldCandidate) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		idx := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Tag.Get("patch") == "" {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				*out = append(*out, fieldCandidate{index: idx, field: f, owner: typ, embedded: true})
				if !path[ft] {
					path[ft] = true
					collectFields(ft, idx, path, out)
					delete(path, ft)
				}
				continue
			}
		}
		*out = append(*out, fieldCandidate{index: idx, field: f, owner: typ})
	}
}

func parsePatchTag(tag string, df *derivedField) error {
	if tag == "" {
		return nil
	}
	roleSet := false
	setRole := func(r Role) error {
		if roleSet && df.role != r {
			return fmt.Errorf("conflicting roles %s and %s", df.role, r)
		}
		df.role, roleSet = r, true
		return nil
	}
	for _, word := range strings.Split(tag, ",") {
		var err error
		switch strings.TrimSpace(word) {
		case "id", "identity":
			err = setRole(RoleIdentity)
		case "forced":
			err = setRole(RoleForced)
		case "-", "ignore":
			err = setRole(RoleIgnored)
		case "delta":
			df.delta = true
		case "":
		default:
			err = fmt.Errorf("unknown tag word %q", word)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func addDerived[T any](b *Builder[T], df *derivedField) {
	switch df.typ.Kind() {
	case reflect.String:
		deriveScalar[T, string](b, df)
	case reflect.Bool:
		deriveScalar[T, bool](b, df)
	case reflect.Int:
		deriveNumeric[T, int](b, df)
	case reflect.Int8:
		deriveNumeric[T, int8](b, df)
	case reflect.Int16:
		deriveNumeric[T, int16](b, df)
	case reflect.Int32:
		deriveNumeric[T, int32](b, df)
	case reflect.Int64:
		deriveNumeric[T, int64](b, df)
	case reflect.Uint:
		deriveNumeric[T, uint](b, df)
	case reflect.Uint8:
		deriveNumeric[T, uint8](b, df)
	case reflect.Uint16:
		deriveNumeric[T, uint16](b, df)
	case reflect.Uint32:
		deriveNumeric[T, uint32](b, df)
	case reflect.Uint64:
		deriveNumeric[T, uint64](b, df)
	case reflect.Uintptr:
		deriveNumeric[T, uintptr](b, df)
	case reflect.Float32:
		deriveNumeric[T, float32](b, df)
	case reflect.Float64:
		deriveNumeric[T, float64](b, df)
	default:
		deriveReflected(b, df)
	}
}

func deriveScalar[T, F any](b *Builder[T], df *derivedField) {
	if df.delta {
		b.add(nil, fmt.Errorf("%w: field %s of type %s cannot be delta diffed", ErrInvalidSchema, df.name, df.typ))
		return
	}
	b.add(newDerivedField[T, F](df))
}

func deriveNumeric[T any, F Numeric](b *Builder[T], df *derivedField) {
	f, err := newDerivedField[T, F](df)
	if err != nil {
		b.add(nil, err)
		return
	}
	if df.delta {
		withDelta(f)
	}
	b.add(f, nil)
}

// deriveReflected declares a field whose type has no builtin counterpart. Values are carried
// as any and checked against the field type.
func deriveReflected[T any](b *Builder[T], df *derivedField) {
	if df.delta {
		b.add(nil, fmt.Errorf("%w: field %s of type %s cannot be delta diffed", ErrInvalidSchema, df.name, df.typ))
		return
	}
	f, err := newDerivedField[T, any](df)
	if err != nil {
		b.add(nil, err)
		return
	}
	typ := df.typ
	f.meta.Type = typ
	f.checkFn = func(v any) error {
		if v == nil {
			if nilable(typ) {
				return nil
			}
			return fmt.Errorf("%w: field %s of type %s cannot be nil", ErrFieldType, df.name, typ)
		}
		if !reflect.TypeOf(v).AssignableTo(typ) {
			return fmt.Errorf("%w: field %s expects %s, got %T", ErrFieldType, df.name, typ, v)
		}
		return nil
	}
	f.decodeFn = func(data []byte) (any, error) {
		pv := reflect.New(typ)
		if err := json.Unmarshal(data, pv.Interface()); err != nil {
			return nil, err
		}
		return pv.Elem().Interface(), nil
	}
	if df.hasDef {
		v, err := f.decodeValue([]byte(df.def))
		if err != nil {
			b.add(nil, fmt.Errorf("%w: default of field %s: %w", ErrInvalidSchema, df.name, err))
			return
		}
		f.def = v
	} else if !nilable(typ) {
		f.def = reflect.Zero(typ).Interface()
	}
	b.add(f, nil)
}

func newDerivedField[T, F any](df *derivedField) (*typedField[T, F], error) {
	target := reflect.TypeOf((*F)(nil)).Elem()
	index, typ := df.index, df.typ
	get := func(t *T) F {
		var zero F
		v, ok := fieldForRead(reflect.ValueOf(t).Elem(), index)
		if !ok {
			return zero
		}
		if target.Kind() != reflect.Interface && v.Type() != target {
			v = v.Convert(target)
		}
		out, _ := v.Interface().(F)
		return out
	}
	set := func(t *T, x F) {
		v := fieldForWrite(reflect.ValueOf(t).Elem(), index)
		rv := reflect.ValueOf(x)
		switch {
		case !rv.IsValid():
			rv = reflect.Zero(typ)
		case !rv.Type().AssignableTo(typ):
			rv = rv.Convert(typ)
		}
		v.Set(rv)
	}
	kind := KindCopy
	if df.delta {
		kind = KindDelta
	}
	f, err := newTypedField[T, F](df.name, kind, fieldSettings{role: df.role, jsonName: df.jsonName}, get, set)
	if err != nil {
		return nil, err
	}
	if df.hasDef && target.Kind() != reflect.Interface {
		v, err := f.decodeValue([]byte(df.def))
		if err != nil {
			if target.Kind() != reflect.String {
				return nil, fmt.Errorf("%w: default of field %s: %w", ErrInvalidSchema, df.name, err)
			}
			v = reflect.ValueOf(df.def).Convert(target).Interface()
		}
		f.def = v.(F)
	}
	return f, nil
}

// fieldForRead walks index through embedded pointers. It reports false when an embedded
// pointer on the path is nil.
func fieldForRead(val reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return reflect.Value{}, false
			}
			val = val.Elem()
		}
		val = val.Field(x)
	}
	return val, true
}

// fieldForWrite walks index like fieldForRead but allocates nil embedded pointers.
func fieldForWrite(val reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && val.Kind() == reflect.Ptr {
			if val.IsNil() {
				val.Set(reflect.New(val.Type().Elem()))
			}
			val = val.Elem()
		}
		val = val.Field(x)
	}
	return val
}
