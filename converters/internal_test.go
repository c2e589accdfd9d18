package converters

import (
	"math"
	"testing"

	"github.com/Station-Manager/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckString(t *testing.T) {
	op := errors.Op("test.CheckString")

	tests := []struct {
		name    string
		input   interface{}
		want    string
		wantErr bool
	}{
		{name: "valid string", input: "test string", want: "test string"},
		{name: "empty string", input: "", wantErr: true},
		{name: "non-string (int)", input: 123, wantErr: true},
		{name: "non-string (nil)", input: nil, wantErr: true},
		{name: "non-string (bool)", input: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckString(op, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckFloat64(t *testing.T) {
	op := errors.Op("test.CheckFloat64")

	tests := []struct {
		name    string
		input   interface{}
		want    float64
		wantErr bool
	}{
		{name: "valid float64", input: 123.45, want: 123.45},
		{name: "zero float64", input: 0.0, want: 0},
		{name: "int", input: 123, want: 123},
		{name: "uint64 from YAML", input: uint64(7), want: 7},
		{name: "float32", input: float32(1.5), want: 1.5},
		{name: "non-float64 (string)", input: "123.45", wantErr: true},
		{name: "non-float64 (nil)", input: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckFloat64(op, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckInt64(t *testing.T) {
	op := errors.Op("test.CheckInt64")

	tests := []struct {
		name    string
		input   interface{}
		want    int64
		wantErr bool
	}{
		{name: "valid int64", input: int64(123), want: 123},
		{name: "int", input: 123, want: 123},
		{name: "int32", input: int32(123), want: 123},
		{name: "int8", input: int8(-12), want: -12},
		{name: "uint", input: uint(123), want: 123},
		{name: "uint64", input: uint64(123), want: 123},
		{name: "uint64 overflow", input: uint64(math.MaxUint64), wantErr: true},
		{name: "float64 with integer value", input: float64(123), want: 123},
		{name: "float64 from JSON unmarshalling", input: float64(14320000), want: 14320000},
		{name: "float64 with fraction", input: 1.5, wantErr: true},
		{name: "string", input: "123", wantErr: true},
		{name: "nil", input: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckInt64(op, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckBool(t *testing.T) {
	op := errors.Op("test.CheckBool")

	got, err := CheckBool(op, true)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = CheckBool(op, "true")
	assert.Error(t, err)
}
