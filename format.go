package patch

import (
	"database/sql/driver"
	"fmt"
	"reflect"
)

// formatValue renders a value for mismatch reports. Pointers are dereferenced and nullable
// values (null.String and friends) print their underlying value.
func formatValue(v any) string {
	if valuer, ok := v.(driver.Valuer); ok {
		if rv := reflect.ValueOf(v); rv.Kind() != reflect.Ptr || !rv.IsNil() {
			dv, err := valuer.Value()
			if err == nil {
				if dv == nil {
					return "<nil>"
				}
				if b, ok := dv.([]byte); ok {
					return string(b)
				}
				return fmt.Sprintf("%v", dv)
			}
		}
	}
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "<nil>"
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return "<nil>"
	}
	return fmt.Sprintf("%+v", rv.Interface())
}
