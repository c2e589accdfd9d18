// Package converters turns values decoded from JSON or YAML documents into the typed values
// record slots hold.
package converters

import (
	"strconv"
	"strings"

	"github.com/Station-Manager/errors"
)

// Func converts a decoded document value into a slot value.
type Func func(src any) (any, error)

// Compose chains converters left-to-right. It aborts on the first error; a nil output
// propagates immediately.
func Compose(fns ...Func) Func {
	return func(src any) (any, error) {
		cur := src
		for _, fn := range fns {
			out, err := fn(cur)
			if err != nil {
				return nil, err
			}
			if out == nil {
				return nil, nil
			}
			cur = out
		}
		return cur, nil
	}
}

// MapString returns a Func applying f when src is a string; otherwise src is returned unchanged.
func MapString(f func(string) string) Func {
	return func(src any) (any, error) {
		if s, ok := src.(string); ok {
			return f(s), nil
		}
		return src, nil
	}
}

// TrimSpace trims surrounding white space from strings.
var TrimSpace = MapString(strings.TrimSpace)

// ToString accepts strings, including the empty string.
func ToString(src any) (any, error) {
	const op errors.Op = "converters.ToString"
	s, ok := src.(string)
	if !ok {
		return "", errors.New(op).Errorf("Given parameter not a string, got %T", src)
	}
	return s, nil
}

// ToInt64 accepts integral numbers and decimal strings.
func ToInt64(src any) (any, error) {
	const op errors.Op = "converters.ToInt64"
	if s, ok := src.(string); ok {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return int64(0), errors.New(op).Err(err)
		}
		return v, nil
	}
	v, err := CheckInt64(op, src)
	if err != nil {
		return int64(0), errors.New(op).Err(err)
	}
	return v, nil
}

// ToFloat64 accepts numbers and numeric strings.
func ToFloat64(src any) (any, error) {
	const op errors.Op = "converters.ToFloat64"
	if s, ok := src.(string); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return float64(0), errors.New(op).Err(err)
		}
		return v, nil
	}
	v, err := CheckFloat64(op, src)
	if err != nil {
		return float64(0), errors.New(op).Err(err)
	}
	return v, nil
}

// ToBool accepts bools and the strings strconv.ParseBool understands.
func ToBool(src any) (any, error) {
	const op errors.Op = "converters.ToBool"
	if s, ok := src.(string); ok {
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return false, errors.New(op).Err(err)
		}
		return v, nil
	}
	v, err := CheckBool(op, src)
	if err != nil {
		return false, errors.New(op).Err(err)
	}
	return v, nil
}
