// Package common converts document values into nullable slot values.
//
// A nil source, and for strings the empty string, becomes an invalid (null) value.
package common

import (
	"time"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/patch/converters"
	"github.com/aarondl/null/v8"
)

// ToNullString converts a string to a null.String.
func ToNullString(src any) (any, error) {
	const op errors.Op = "converters.common.ToNullString"
	switch v := src.(type) {
	case nil:
		return null.String{}, nil
	case null.String:
		return v, nil
	case string:
		if v == "" {
			return null.String{}, nil
		}
		return null.StringFrom(v), nil
	}
	return null.String{}, errors.New(op).Errorf("Given parameter not a string, got %T", src)
}

// ToNullInt64 converts an integral number or decimal string to a null.Int64.
func ToNullInt64(src any) (any, error) {
	const op errors.Op = "converters.common.ToNullInt64"
	switch v := src.(type) {
	case nil:
		return null.Int64{}, nil
	case null.Int64:
		return v, nil
	}
	v, err := converters.ToInt64(src)
	if err != nil {
		return null.Int64{}, errors.New(op).Err(err)
	}
	return null.Int64From(v.(int64)), nil
}

// ToNullFloat64 converts a number or numeric string to a null.Float64.
func ToNullFloat64(src any) (any, error) {
	const op errors.Op = "converters.common.ToNullFloat64"
	switch v := src.(type) {
	case nil:
		return null.Float64{}, nil
	case null.Float64:
		return v, nil
	}
	v, err := converters.ToFloat64(src)
	if err != nil {
		return null.Float64{}, errors.New(op).Err(err)
	}
	return null.Float64From(v.(float64)), nil
}

// ToNullBool converts a bool to a null.Bool.
func ToNullBool(src any) (any, error) {
	const op errors.Op = "converters.common.ToNullBool"
	switch v := src.(type) {
	case nil:
		return null.Bool{}, nil
	case null.Bool:
		return v, nil
	}
	v, err := converters.ToBool(src)
	if err != nil {
		return null.Bool{}, errors.New(op).Err(err)
	}
	return null.BoolFrom(v.(bool)), nil
}

// ToNullTime converts a timestamp to a null.Time.
func ToNullTime(src any) (any, error) {
	const op errors.Op = "converters.common.ToNullTime"
	switch v := src.(type) {
	case nil:
		return null.Time{}, nil
	case null.Time:
		return v, nil
	case string:
		if v == "" {
			return null.Time{}, nil
		}
	}
	v, err := converters.ToTime(src)
	if err != nil {
		return null.Time{}, errors.New(op).Err(err)
	}
	return null.TimeFrom(v.(time.Time)), nil
}
