package descriptor

import (
	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/patch/converters/common"
	"github.com/goccy/go-yaml"
)

// DecodeRecord parses a YAML or JSON document into a Record. Absent fields receive their
// default or the zero value of their type. Keys the descriptor does not declare are rejected.
func (d *RecordDescriptor) DecodeRecord(data []byte) (Record, error) {
	const op errors.Op = "descriptor.RecordDescriptor.DecodeRecord"
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.New(op).Err(err)
	}
	r, err := d.RecordFromMap(raw)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return r, nil
}

// RecordFromMap converts decoded document values into a Record.
func (d *RecordDescriptor) RecordFromMap(raw map[string]any) (Record, error) {
	const op errors.Op = "descriptor.RecordDescriptor.RecordFromMap"
	for k := range raw {
		if _, ok := d.Field(k); !ok {
			return nil, errors.New(op).Errorf("%s has no field %s", d.Name, k)
		}
	}
	r := make(Record, len(d.Fields))
	for _, fd := range d.Fields {
		c := columnFor(fd)
		src, ok := raw[fd.Name]
		if !ok || src == nil {
			def, hasDef, err := c.defaultValue()
			if err != nil {
				return nil, errors.New(op).Err(err)
			}
			if hasDef {
				r[fd.Name] = def
			} else {
				r[fd.Name] = c.zero()
			}
			continue
		}
		v, err := c.convert(src)
		if err != nil {
			return nil, errors.New(op).Errorf("field %s: %v", fd.Name, err)
		}
		r[fd.Name] = v
	}
	return r, nil
}

// Plain renders a Record with nullable and raw JSON values unwrapped, ready for a JSON or
// YAML encoder.
func (d *RecordDescriptor) Plain(r Record) (map[string]any, error) {
	const op errors.Op = "descriptor.RecordDescriptor.Plain"
	out := make(map[string]any, len(r))
	for _, fd := range d.Fields {
		v, ok := r[fd.Name]
		if !ok {
			continue
		}
		pv, err := common.Plain(v)
		if err != nil {
			return nil, errors.New(op).Errorf("field %s: %v", fd.Name, err)
		}
		out[fd.Name] = pv
	}
	return out, nil
}
