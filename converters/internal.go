package converters

import (
	"math"
	"reflect"

	"github.com/Station-Manager/errors"
)

// CheckString returns src as a non-empty string.
func CheckString(op errors.Op, src any) (string, error) {
	srcVal, ok := src.(string)
	if !ok {
		return "", errors.New(op).Errorf("Given parameter not a string, got %T", src)
	}
	if srcVal == "" {
		return "", errors.New(op).Msg(ErrMsgEmptyValue)
	}
	return srcVal, nil
}

// CheckFloat64 returns any numeric src as a float64.
func CheckFloat64(op errors.Op, src any) (float64, error) {
	if src == nil {
		return 0, errors.New(op).Errorf("Given parameter not a number, got %T", src)
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return 0, errors.New(op).Errorf("Given parameter not a number, got %T", src)
}

// CheckInt64 returns an integral src as an int64. Floats are accepted when they hold a whole
// number, which is how JSON decoding delivers integers.
func CheckInt64(op errors.Op, src any) (int64, error) {
	if src == nil {
		return 0, errors.New(op).Errorf("Given parameter not an integer, got %T", src)
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errors.New(op).Msg(ErrMsgOutOfRange)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, errors.New(op).Errorf("Given parameter not a whole number, got %v", f)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, errors.New(op).Msg(ErrMsgOutOfRange)
		}
		return int64(f), nil
	}
	return 0, errors.New(op).Errorf("Given parameter not an integer, got %T", src)
}

// CheckBool returns src as a bool.
func CheckBool(op errors.Op, src any) (bool, error) {
	srcVal, ok := src.(bool)
	if !ok {
		return false, errors.New(op).Errorf("Given parameter not a bool, got %T", src)
	}
	return srcVal, nil
}
