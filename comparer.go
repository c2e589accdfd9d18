package patch

import (
	"math"
	"reflect"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/mohae/deepcopy"
	"golang.org/x/exp/constraints"
)

// Comparer decides whether two field values are equivalent and produces owned copies of them.
type Comparer[F any] interface {
	Compare(a, b F) bool
	Copy(a F) F
}

// ComparerFunc adapts an equality function to a Comparer. Copy is a plain value copy.
type ComparerFunc[F any] func(a, b F) bool

func (f ComparerFunc[F]) Compare(a, b F) bool { return f(a, b) }
func (f ComparerFunc[F]) Copy(a F) F          { return a }

type defaultComparer[F any] struct{}

// DefaultComparer compares structurally and deep-copies values.
//
// Floating-point values, including those nested inside structs, slices and maps, compare
// exactly unless the module is built with the epsilon_compare tag, in which case two values
// are equal when they differ by less than the machine epsilon of their type.
func DefaultComparer[F any]() Comparer[F] { return defaultComparer[F]{} }

func (defaultComparer[F]) Compare(a, b F) bool { return cmp.Equal(a, b, compareOptions...) }

func (defaultComparer[F]) Copy(a F) F { return deepCopy(a) }

type equalComparer[F comparable] struct{}

// EqualComparer compares with ==.
func EqualComparer[F comparable]() Comparer[F] { return equalComparer[F]{} }

func (equalComparer[F]) Compare(a, b F) bool { return a == b }
func (equalComparer[F]) Copy(a F) F          { return a }

type toleranceComparer[F constraints.Float] struct{ eps F }

// Tolerance treats two floats as equal when |a-b| < eps.
func Tolerance[F constraints.Float](eps F) Comparer[F] { return toleranceComparer[F]{eps: eps} }

func (c toleranceComparer[F]) Compare(a, b F) bool {
	return math.Abs(float64(a)-float64(b)) < float64(c.eps)
}
func (c toleranceComparer[F]) Copy(a F) F { return a }

// Machine epsilon of float64 and float32.
const (
	epsilon64 = 0x1p-52
	epsilon32 = float32(0x1p-23)
)

var compareOptions = buildCompareOptions()

func buildCompareOptions() []cmp.Option {
	opts := []cmp.Option{cmp.Exporter(func(reflect.Type) bool { return true })}
	if epsilonCompare {
		opts = append(opts,
			cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < epsilon64 }),
			cmp.Comparer(func(a, b float32) bool { return float32(math.Abs(float64(a-b))) < epsilon32 }),
		)
	}
	return opts
}

type copyMode uint8

const (
	copyShallow copyMode = iota // no references, assignment copies
	copyDeep                    // references, all reachable fields exported
	copyMixed                   // references next to unexported fields
)

var copyModes sync.Map // map[reflect.Type]copyMode

// deepCopy duplicates reference-carrying values. Unexported struct fields cannot be reached by
// reflection and are copied by assignment; exported fields next to them are still duplicated.
func deepCopy[F any](a F) F {
	rv := reflect.ValueOf(&a).Elem()
	if copyModeOf(rv.Type()) == copyShallow {
		return a
	}
	if out, ok := copyValueOf(rv).Interface().(F); ok {
		return out
	}
	return a
}

func copyValueOf(v reflect.Value) reflect.Value {
	t := v.Type()
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		if v.IsNil() {
			return v
		}
	}
	if t.Kind() == reflect.Interface {
		out := reflect.New(t).Elem()
		out.Set(copyValueOf(v.Elem()))
		return out
	}
	switch copyModeOf(t) {
	case copyShallow:
		return v
	case copyDeep:
		if c := reflect.ValueOf(deepcopy.Copy(v.Interface())); c.IsValid() && c.Type() == t {
			return c
		}
		return v
	}
	switch t.Kind() {
	case reflect.Ptr:
		out := reflect.New(t.Elem())
		out.Elem().Set(copyValueOf(v.Elem()))
		return out
	case reflect.Slice:
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyValueOf(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyValueOf(v.Index(i)))
		}
		return out
	case reflect.Map:
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValueOf(iter.Value()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(t).Elem()
		out.Set(v)
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" || copyModeOf(f.Type) == copyShallow {
				continue
			}
			out.Field(i).Set(copyValueOf(v.Field(i)))
		}
		return out
	}
	return v
}

func copyModeOf(t reflect.Type) copyMode {
	if m, ok := copyModes.Load(t); ok {
		return m.(copyMode)
	}
	mode := copyShallow
	if hasReferences(t, map[reflect.Type]bool{}) {
		mode = copyDeep
		if hasUnexported(t, map[reflect.Type]bool{}) {
			mode = copyMixed
		}
	}
	actual, _ := copyModes.LoadOrStore(t, mode)
	return actual.(copyMode)
}

func hasReferences(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	case reflect.Array:
		return hasReferences(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasReferences(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}

func hasUnexported(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return hasUnexported(t.Elem(), seen)
	case reflect.Map:
		return hasUnexported(t.Key(), seen) || hasUnexported(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" || hasUnexported(f.Type, seen) {
				return true
			}
		}
	}
	return false
}
