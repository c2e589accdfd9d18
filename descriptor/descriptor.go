// Package descriptor declares records in YAML or JSON instead of Go code.
//
// A descriptor names a record type and lists its fields:
//
//	name: qso
//	fields:
//	  - {name: id, type: int, role: id}
//	  - {name: call, type: string, transform: upper}
//	  - {name: freq, type: frequency, diff: delta}
//	  - {name: comment, type: string, nullable: true}
//	  - {name: rev, type: int, role: forced, default: 1}
//
// Records described this way are held in a Record map and patched through the Schema the
// descriptor builds.
package descriptor

import (
	"os"
	"strings"
	"unicode"

	"github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Field types.
const (
	TypeString    = "string"
	TypeInt       = "int"
	TypeFloat     = "float"
	TypeBool      = "bool"
	TypeTime      = "time"
	TypeDate      = "date"
	TypeClock     = "clock"
	TypeFrequency = "frequency"
	TypeJSON      = "json"
)

// Field roles. An empty role means RoleValue.
const (
	RoleValue   = "value"
	RoleID      = "id"
	RoleForced  = "forced"
	RoleIgnored = "ignored"
)

// String transforms.
const (
	TransformTrim  = "trim"
	TransformUpper = "upper"
	TransformLower = "lower"
)

// Diff kinds. An empty diff means copy.
const (
	DiffCopy  = "copy"
	DiffDelta = "delta"
)

// FieldDescriptor declares one field.
type FieldDescriptor struct {
	Name      string `yaml:"name" json:"name" validate:"required,fieldname"`
	Type      string `yaml:"type" json:"type" validate:"required,oneof=string int float bool time date clock frequency json"`
	Nullable  bool   `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Role      string `yaml:"role,omitempty" json:"role,omitempty" validate:"omitempty,oneof=value id forced ignored"`
	Diff      string `yaml:"diff,omitempty" json:"diff,omitempty" validate:"omitempty,oneof=copy delta"`
	Default   any    `yaml:"default,omitempty" json:"default,omitempty"`
	Transform string `yaml:"transform,omitempty" json:"transform,omitempty" validate:"omitempty,oneof=trim upper lower"` // applied to string values before conversion
}

// RecordDescriptor declares a record type.
type RecordDescriptor struct {
	Name   string            `yaml:"name" json:"name" validate:"required,fieldname"`
	Fields []FieldDescriptor `yaml:"fields" json:"fields" validate:"required,min=1,dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("fieldname", validateFieldName)
}

// validateFieldName accepts letters, digits, '_' and '-', starting with a letter or '_'.
func validateFieldName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return s != ""
}

// Load parses a descriptor from YAML or JSON and validates it.
func Load(data []byte) (*RecordDescriptor, error) {
	const op errors.Op = "descriptor.Load"
	var d RecordDescriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.New(op).Err(err)
	}
	if err := d.Validate(); err != nil {
		return nil, errors.New(op).Err(err)
	}
	return &d, nil
}

// LoadFile reads and parses a descriptor file.
func LoadFile(path string) (*RecordDescriptor, error) {
	const op errors.Op = "descriptor.LoadFile"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	d, err := Load(data)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return d, nil
}

// Validate checks the descriptor tags and the rules tags cannot express: unique names, delta
// diffs only on non-nullable numeric value or forced fields.
func (d *RecordDescriptor) Validate() error {
	const op errors.Op = "descriptor.RecordDescriptor.Validate"
	if err := validate.Struct(d); err != nil {
		return errors.New(op).Err(err)
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if seen[f.Name] {
			return errors.New(op).Errorf("duplicate field %s", f.Name)
		}
		seen[f.Name] = true
		if f.Transform != "" && f.Type != TypeString {
			return errors.New(op).Errorf("field %s of type %s cannot be transformed", f.Name, f.Type)
		}
		if f.Diff != DiffDelta {
			continue
		}
		switch {
		case f.Nullable:
			return errors.New(op).Errorf("nullable field %s cannot be delta diffed", f.Name)
		case f.Type != TypeInt && f.Type != TypeFloat && f.Type != TypeFrequency:
			return errors.New(op).Errorf("field %s of type %s cannot be delta diffed", f.Name, f.Type)
		case f.Role == RoleID || f.Role == RoleIgnored:
			return errors.New(op).Errorf("%s field %s cannot be delta diffed", f.Role, f.Name)
		}
	}
	return nil
}

// Field returns the descriptor of the named field.
func (d *RecordDescriptor) Field(name string) (FieldDescriptor, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Marshal renders the descriptor as YAML.
func (d *RecordDescriptor) Marshal() ([]byte, error) {
	const op errors.Op = "descriptor.RecordDescriptor.Marshal"
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return out, nil
}

func (d *RecordDescriptor) String() string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name + ":" + f.Type
	}
	return d.Name + "{" + strings.Join(names, ", ") + "}"
}
