package patch

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
)

var (
	ErrUnknownField = errors.New("patch: unknown field")
	ErrFieldType    = errors.New("patch: wrong field type")
	ErrFieldRole    = errors.New("patch: operation not allowed for field role")
)

// FieldInfo describes a declared field.
type FieldInfo struct {
	Name     string
	JSONName string
	Role     Role
	Kind     DiffKind
	Type     reflect.Type
}

// fieldDef is the type-erased view of a typedField that Partial and Patch work with. Values
// are passed as any holding an F, diffs as any holding a Diff[F].
type fieldDef[T any] interface {
	info() *FieldInfo
	setRole(r Role)
	clone() fieldDef[T]

	get(obj *T) any
	set(obj *T, v any) error
	check(v any) error
	equal(a, b any) bool
	copyValue(v any) any
	defaultValue() any

	newDiff(old, new any) any
	checkDiff(d any) error
	diffContainsChange(d any) bool
	diffChangesObject(d any, obj *T) bool
	diffAppliesCleanly(d any, obj *T) *MismatchError
	diffApply(d any, v any) (any, error)
	diffMerge(d, rhs any) error
	diffClone(d any) any
	diffKind(d any) DiffKind
	diffChange(d any) Change

	decodeValue(data []byte) (any, error)
	decodeDiff(kind DiffKind, data []byte) (any, error)
}

// deltaDiff is implemented by *NumericDistanceDiff so erased code can read the delta without
// knowing that F is numeric.
type deltaDiff interface {
	deltaValue() any
}

func (d *NumericDistanceDiff[F]) deltaValue() any { return d.difference }

type typedField[T, F any] struct {
	meta       FieldInfo
	getFn      func(*T) F
	setFn      func(*T, F)
	cmp        Comparer[F]
	def        F
	newDiffFn  func(old, new F) Diff[F]
	emptyDelta func() Diff[F] // nil when F is not numeric
	checkFn    func(v any) error
	decodeFn   func(data []byte) (F, error)
}

func newTypedField[T, F any](name string, kind DiffKind, s fieldSettings, get func(*T) F, set func(*T, F)) (*typedField[T, F], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}
	if get == nil || set == nil {
		return nil, fmt.Errorf("%w: field %s has no accessor", ErrInvalidSchema, name)
	}
	f := &typedField[T, F]{
		meta:  FieldInfo{Name: name, JSONName: s.jsonName, Role: s.role, Kind: kind, Type: reflect.TypeOf((*F)(nil)).Elem()},
		getFn: get,
		setFn: set,
		cmp:   DefaultComparer[F](),
	}
	if f.meta.JSONName == "" {
		f.meta.JSONName = name
	}
	if s.comparer != nil {
		c, ok := s.comparer.(Comparer[F])
		if !ok {
			return nil, fmt.Errorf("%w: comparer %T does not match field %s of type %s", ErrInvalidSchema, s.comparer, name, f.meta.Type)
		}
		f.cmp = c
	}
	if s.hasDef {
		v, ok := s.def.(F)
		if !ok {
			return nil, fmt.Errorf("%w: default %T does not match field %s of type %s", ErrInvalidSchema, s.def, name, f.meta.Type)
		}
		f.def = v
	}
	f.newDiffFn = func(old, new F) Diff[F] { return NewCopyDiffWith(f.cmp, old, new) }
	return f, nil
}

func (f *typedField[T, F]) info() *FieldInfo { return &f.meta }
func (f *typedField[T, F]) setRole(r Role)   { f.meta.Role = r }

// clone copies the definition so role overrides stay local to one Schema. The accessors and
// comparer are immutable and shared.
func (f *typedField[T, F]) clone() fieldDef[T] {
	c := *f
	return &c
}

func (f *typedField[T, F]) cast(v any) (F, error) {
	var zero F
	if f.checkFn != nil {
		if err := f.checkFn(v); err != nil {
			return zero, err
		}
	}
	if v == nil {
		if nilable(f.meta.Type) {
			return zero, nil
		}
		return zero, fmt.Errorf("%w: field %s of type %s cannot be nil", ErrFieldType, f.meta.Name, f.meta.Type)
	}
	fv, ok := v.(F)
	if !ok {
		return zero, fmt.Errorf("%w: field %s expects %s, got %T", ErrFieldType, f.meta.Name, f.meta.Type, v)
	}
	return fv, nil
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func (f *typedField[T, F]) get(obj *T) any { return f.cmp.Copy(f.getFn(obj)) }

func (f *typedField[T, F]) set(obj *T, v any) error {
	fv, err := f.cast(v)
	if err != nil {
		return err
	}
	f.setFn(obj, f.cmp.Copy(fv))
	return nil
}

func (f *typedField[T, F]) check(v any) error {
	_, err := f.cast(v)
	return err
}

func (f *typedField[T, F]) equal(a, b any) bool {
	av, err := f.cast(a)
	if err != nil {
		return false
	}
	bv, err := f.cast(b)
	if err != nil {
		return false
	}
	return f.cmp.Compare(av, bv)
}

func (f *typedField[T, F]) copyValue(v any) any {
	fv, err := f.cast(v)
	if err != nil {
		return v
	}
	return f.cmp.Copy(fv)
}

func (f *typedField[T, F]) defaultValue() any { return f.cmp.Copy(f.def) }

func (f *typedField[T, F]) newDiff(old, new any) any {
	o, _ := f.cast(old)
	n, _ := f.cast(new)
	return f.newDiffFn(o, n)
}

func (f *typedField[T, F]) checkDiff(d any) error {
	dv, ok := d.(Diff[F])
	if !ok || dv == nil {
		return fmt.Errorf("%w: field %s expects Diff[%s], got %T", ErrFieldType, f.meta.Name, f.meta.Type, d)
	}
	return nil
}

func (f *typedField[T, F]) diffContainsChange(d any) bool { return d.(Diff[F]).ContainsChange() }

func (f *typedField[T, F]) diffChangesObject(d any, obj *T) bool {
	return d.(Diff[F]).ChangesObject(f.getFn(obj))
}

func (f *typedField[T, F]) diffAppliesCleanly(d any, obj *T) *MismatchError {
	return f.mismatch(d.(Diff[F]).AppliesCleanly(f.getFn(obj)))
}

func (f *typedField[T, F]) mismatch(err error) *MismatchError {
	if err == nil {
		return nil
	}
	var mm *MismatchError
	if errors.As(err, &mm) {
		return mm.withField(f.meta.Name)
	}
	return NewMismatchError(f.meta.Name, "", err.Error(), PatchOldValueMismatch)
}

// diffApply applies d to a copy of v and returns the result. v is never modified.
func (f *typedField[T, F]) diffApply(d any, v any) (any, error) {
	cur, err := f.cast(v)
	if err != nil {
		return nil, err
	}
	cur = f.cmp.Copy(cur)
	if err := d.(Diff[F]).ApplyInto(&cur); err != nil {
		return nil, f.mismatch(err)
	}
	return cur, nil
}

func (f *typedField[T, F]) diffMerge(d, rhs any) error {
	r, ok := rhs.(Diff[F])
	if !ok {
		return fmt.Errorf("%w: field %s expects Diff[%s], got %T", ErrFieldType, f.meta.Name, f.meta.Type, rhs)
	}
	if err := d.(Diff[F]).Merge(r); err != nil {
		return fmt.Errorf("merging field %s: %w", f.meta.Name, err)
	}
	return nil
}

func (f *typedField[T, F]) diffClone(d any) any { return d.(Diff[F]).Clone() }

func (f *typedField[T, F]) diffKind(d any) DiffKind { return d.(Diff[F]).Kind() }

func (f *typedField[T, F]) diffChange(d any) Change {
	c := Change{Field: f.meta.Name, JSONName: f.meta.JSONName, Kind: f.diffKind(d)}
	switch dv := d.(type) {
	case *CopyDiff[F]:
		c.Old, c.New = dv.OldValue(), dv.NewValue()
	case deltaDiff:
		c.Delta = dv.deltaValue()
	}
	return c
}

func (f *typedField[T, F]) decodeValue(data []byte) (any, error) {
	if f.decodeFn != nil {
		v, err := f.decodeFn(data)
		if err != nil {
			return nil, fmt.Errorf("decoding field %s: %w", f.meta.Name, err)
		}
		return v, nil
	}
	var v F
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding field %s: %w", f.meta.Name, err)
	}
	return v, nil
}

func (f *typedField[T, F]) decodeDiff(kind DiffKind, data []byte) (any, error) {
	switch kind {
	case KindCopy:
		var raw struct {
			Old json.RawMessage `json:"old"`
			New json.RawMessage `json:"new"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding diff of field %s: %w", f.meta.Name, err)
		}
		old, err := f.decodeRaw(raw.Old)
		if err != nil {
			return nil, err
		}
		new, err := f.decodeRaw(raw.New)
		if err != nil {
			return nil, err
		}
		return NewCopyDiffWith(f.cmp, old, new), nil
	case KindDelta:
		if f.emptyDelta == nil {
			return nil, fmt.Errorf("%w: field %s of type %s cannot hold a delta diff", ErrFieldType, f.meta.Name, f.meta.Type)
		}
		d := f.emptyDelta()
		if err := json.Unmarshal(data, d); err != nil {
			return nil, fmt.Errorf("decoding diff of field %s: %w", f.meta.Name, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: unknown diff kind %s for field %s", ErrFieldType, kind, f.meta.Name)
}

func (f *typedField[T, F]) decodeRaw(data []byte) (F, error) {
	var zero F
	if len(data) == 0 {
		return zero, nil
	}
	v, err := f.decodeValue(data)
	if err != nil {
		return zero, err
	}
	return f.cast(v)
}
