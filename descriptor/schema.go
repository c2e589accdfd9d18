package descriptor

import (
	"strings"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/patch"
	"github.com/Station-Manager/patch/converters"
	"github.com/Station-Manager/patch/converters/common"
	"github.com/aarondl/null/v8"
	boilertypes "github.com/aarondl/sqlboiler/v4/types"
)

// Record holds the values of a described record keyed by field name. Values have the Go type
// of their field: string, int64, float64, bool, time.Time, the null package types for nullable
// fields, and sqlboiler's types.JSON for json fields. Frequencies are int64 Hz.
type Record map[string]any

// column binds a field descriptor to its Go representation.
type column struct {
	desc    FieldDescriptor
	convert converters.Func
	declare func(b *patch.Builder[Record], c *column, opts []patch.FieldOption) error
}

func columnFor(fd FieldDescriptor) *column {
	c := &column{desc: fd}
	delta := fd.Diff == DiffDelta
	switch {
	case fd.Type == TypeJSON:
		c.convert, c.declare = common.ToJSON, declareCopy[boilertypes.JSON]
	case fd.Nullable:
		switch fd.Type {
		case TypeString:
			c.convert, c.declare = common.ToNullString, declareCopy[null.String]
		case TypeInt:
			c.convert, c.declare = common.ToNullInt64, declareCopy[null.Int64]
		case TypeFloat:
			c.convert, c.declare = common.ToNullFloat64, declareCopy[null.Float64]
		case TypeBool:
			c.convert, c.declare = common.ToNullBool, declareCopy[null.Bool]
		case TypeTime:
			c.convert, c.declare = common.ToNullTime, declareCopy[null.Time]
		case TypeDate:
			c.convert, c.declare = nullable(converters.ToDate), declareCopy[null.String]
		case TypeClock:
			c.convert, c.declare = nullable(converters.ToClock), declareCopy[null.String]
		case TypeFrequency:
			c.convert, c.declare = nullableInt(converters.ToFrequencyHz), declareCopy[null.Int64]
		}
	default:
		switch fd.Type {
		case TypeString:
			c.convert, c.declare = converters.ToString, declareCopy[string]
		case TypeInt:
			c.convert, c.declare = converters.ToInt64, pick(delta, declareDelta[int64], declareCopy[int64])
		case TypeFloat:
			c.convert, c.declare = converters.ToFloat64, pick(delta, declareDelta[float64], declareCopy[float64])
		case TypeBool:
			c.convert, c.declare = converters.ToBool, declareCopy[bool]
		case TypeTime:
			c.convert, c.declare = converters.ToTime, declareCopy[time.Time]
		case TypeDate:
			c.convert, c.declare = converters.ToDate, declareCopy[string]
		case TypeClock:
			c.convert, c.declare = converters.ToClock, declareCopy[string]
		case TypeFrequency:
			c.convert, c.declare = converters.ToFrequencyHz, pick(delta, declareDelta[int64], declareCopy[int64])
		}
	}
	if fn, ok := transforms[fd.Transform]; ok {
		c.convert = converters.Compose(fn, c.convert)
	}
	return c
}

var transforms = map[string]converters.Func{
	TransformTrim:  converters.TrimSpace,
	TransformUpper: converters.Compose(converters.TrimSpace, converters.MapString(strings.ToUpper)),
	TransformLower: converters.Compose(converters.TrimSpace, converters.MapString(strings.ToLower)),
}

func pick[F any](cond bool, a, b F) F {
	if cond {
		return a
	}
	return b
}

// nullable wraps a string converter so that nil and "" become an invalid null.String.
func nullable(fn converters.Func) converters.Func {
	return func(src any) (any, error) {
		if src == nil || src == "" {
			return null.String{}, nil
		}
		v, err := fn(src)
		if err != nil {
			return null.String{}, err
		}
		return common.ToNullString(v)
	}
}

func nullableInt(fn converters.Func) converters.Func {
	return func(src any) (any, error) {
		if src == nil || src == "" {
			return null.Int64{}, nil
		}
		v, err := fn(src)
		if err != nil {
			return null.Int64{}, err
		}
		return common.ToNullInt64(v)
	}
}

// zero returns the value an absent field holds.
func (c *column) zero() any {
	v, err := c.convert(nil)
	if err == nil && v != nil {
		return v
	}
	switch c.desc.Type {
	case TypeString, TypeDate, TypeClock:
		return ""
	case TypeInt, TypeFrequency:
		return int64(0)
	case TypeFloat:
		return float64(0)
	case TypeBool:
		return false
	case TypeTime:
		return time.Time{}
	}
	return boilertypes.JSON(nil)
}

func accessors[F any](name string) (func(*Record) F, func(*Record, F)) {
	get := func(r *Record) F {
		v, _ := (*r)[name].(F)
		return v
	}
	set := func(r *Record, v F) {
		if *r == nil {
			*r = Record{}
		}
		(*r)[name] = v
	}
	return get, set
}

func (c *column) fieldOptions() []patch.FieldOption {
	var opts []patch.FieldOption
	switch c.desc.Role {
	case RoleID:
		opts = append(opts, patch.AsIdentity())
	case RoleForced:
		opts = append(opts, patch.AsForced())
	case RoleIgnored:
		opts = append(opts, patch.AsIgnored())
	}
	return opts
}

func (c *column) defaultValue() (any, bool, error) {
	const op errors.Op = "descriptor.column.defaultValue"
	if c.desc.Default == nil {
		return nil, false, nil
	}
	v, err := c.convert(c.desc.Default)
	if err != nil {
		return nil, false, errors.New(op).Errorf("default of field %s: %v", c.desc.Name, err)
	}
	return v, true, nil
}

func declareCopy[F any](b *patch.Builder[Record], c *column, opts []patch.FieldOption) error {
	const op errors.Op = "descriptor.declareCopy"
	def, ok, err := c.defaultValue()
	if err != nil {
		return errors.New(op).Err(err)
	}
	if ok {
		opts = append(opts, patch.WithDefault(def.(F)))
	}
	get, set := accessors[F](c.desc.Name)
	patch.FieldFunc(b, c.desc.Name, get, set, opts...)
	return nil
}

func declareDelta[F patch.Numeric](b *patch.Builder[Record], c *column, opts []patch.FieldOption) error {
	const op errors.Op = "descriptor.declareDelta"
	def, ok, err := c.defaultValue()
	if err != nil {
		return errors.New(op).Err(err)
	}
	if ok {
		opts = append(opts, patch.WithDefault(def.(F)))
	}
	get, set := accessors[F](c.desc.Name)
	patch.DeltaFunc(b, c.desc.Name, get, set, opts...)
	return nil
}

// Schema builds the patch schema for records of this descriptor.
func (d *RecordDescriptor) Schema(opts ...patch.Option) (*patch.Schema[Record], error) {
	const op errors.Op = "descriptor.RecordDescriptor.Schema"
	if err := d.Validate(); err != nil {
		return nil, errors.New(op).Err(err)
	}
	b := patch.NewBuilder[Record](d.Name, opts...)
	for _, fd := range d.Fields {
		c := columnFor(fd)
		if err := c.declare(b, c, c.fieldOptions()); err != nil {
			return nil, errors.New(op).Err(err)
		}
	}
	s, err := b.Build()
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return s, nil
}
