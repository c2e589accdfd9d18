package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMismatchError(t *testing.T) {
	m := NewMismatchError("food", "1.5", "2.5", PatchOldValueMismatch)
	assert.Equal(t, "Current object value did not match old patch value - field food: expected 1.5, got 2.5", m.Error())
	assert.Equal(t, "food", m.Name())
	assert.Contains(t, m.PrettyDiff(), "5")
}

func TestMismatchType_Text(t *testing.T) {
	tests := []struct {
		typ  MismatchType
		text string
	}{
		{typ: ObjectIdentity, text: "object_identity"},
		{typ: PatchOldValueMismatch, text: "patch_old_value"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			out, err := tt.typ.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tt.text, string(out))

			var back MismatchType
			require.NoError(t, back.UnmarshalText(out))
			assert.Equal(t, tt.typ, back)
		})
	}

	_, err := MismatchType(7).MarshalText()
	assert.Error(t, err)
	var typ MismatchType
	assert.Error(t, typ.UnmarshalText([]byte("other")))
	assert.Equal(t, "MismatchType(7)", MismatchType(7).String())
}

func TestMultipleMismatchError(t *testing.T) {
	m := NewMultipleMismatchError()
	assert.True(t, m.IsErrorFree())
	assert.False(t, m.HasErrors())
	assert.Nil(t, m.ErrorOrNil())

	m.Add(*NewMismatchError("id", "1", "2", ObjectIdentity))
	m.Add(*NewMismatchError("food", "1", "3", PatchOldValueMismatch))

	other := NewMultipleMismatchError()
	other.Add(*NewMismatchError("food", "1", "3", PatchOldValueMismatch))
	m.Merge(other)
	m.Merge(nil)

	require.Equal(t, 3, m.Len())
	assert.True(t, m.HasErrors())
	assert.Len(t, m.ByType(PatchOldValueMismatch), 2)
	assert.Len(t, m.ByType(ObjectIdentity), 1)

	msg := m.Error()
	assert.True(t, strings.HasPrefix(msg, "3 mismatches:\n"))
	assert.Equal(t, 4, strings.Count(msg, "\n"))

	got := m.Mismatches()
	got[0].Field = "changed"
	assert.Equal(t, "id", m.Mismatches()[0].Field)

	err := m.ErrorOrNil()
	require.Error(t, err)
	var single *MismatchError
	require.True(t, errors.As(err, &single))
	assert.Equal(t, "id", single.Field)
}

func TestMultipleMismatchError_NilReceiver(t *testing.T) {
	var m *MultipleMismatchError
	assert.NoError(t, m.ErrorOrNil())
}

func TestIncompleteError(t *testing.T) {
	s := recordSchema(t)
	p := s.NewPartial()
	require.NoError(t, p.Set("id", int64(5)))

	_, err := p.Build()
	var ie *IncompleteError[*Partial[record]]
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "build", ie.Operation)
	assert.Equal(t, "5", ie.ObjectID)
	assert.True(t, strings.HasPrefix(err.Error(), "IncompleteError: `build` failed for 5.\nData:\n"))
	assert.Contains(t, err.Error(), "food: <unset>")
}
