package patch

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyDiff_AppliesCleanly(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		new     string
		current string
		clean   bool
	}{
		{name: "baseline", old: "a", new: "b", current: "a", clean: true},
		{name: "stale", old: "a", new: "b", current: "c"},
		{name: "already applied", old: "a", new: "b", current: "b"},
		{name: "no change", old: "a", new: "a", current: "a", clean: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewCopyDiff(tt.old, tt.new)
			err := d.AppliesCleanly(tt.current)
			if tt.clean {
				assert.NoError(t, err)
				return
			}
			var m *MismatchError
			require.ErrorAs(t, err, &m)
			assert.Equal(t, PatchOldValueMismatch, m.Type)
			assert.Equal(t, tt.old, m.Expected)
			assert.Equal(t, tt.current, m.Received)
			assert.Empty(t, m.Field)
		})
	}
}

func TestCopyDiff_ContainsChange(t *testing.T) {
	assert.False(t, NewCopyDiff(3, 3).ContainsChange())
	assert.True(t, NewCopyDiff(3, 4).ContainsChange())
	assert.False(t, NewCopyDiff([]int{1, 2}, []int{1, 2}).ContainsChange())
	assert.True(t, NewCopyDiff(map[string]int{"a": 1}, map[string]int{"a": 2}).ContainsChange())
}

func TestCopyDiff_ChangesObject(t *testing.T) {
	d := NewCopyDiff("a", "b")
	assert.True(t, d.ChangesObject("b"))
	assert.False(t, d.ChangesObject("a"))
	assert.False(t, NewCopyDiff("a", "a").ChangesObject("a"))
}

func TestCopyDiff_ApplyInto(t *testing.T) {
	d := NewCopyDiff(1.5, 2.5)
	v := 1.5
	require.NoError(t, d.ApplyInto(&v))
	assert.Equal(t, 2.5, v)

	err := d.ApplyInto(&v)
	assert.Error(t, err)
	assert.Equal(t, 2.5, v)
}

func TestCopyDiff_OwnsItsValues(t *testing.T) {
	old := []string{"a"}
	next := []string{"a", "b"}
	d := NewCopyDiff(old, next)
	next[0] = "z"

	var obj []string
	obj = append(obj, "a")
	require.NoError(t, d.ApplyInto(&obj))
	assert.Equal(t, []string{"a", "b"}, obj)

	obj[1] = "changed"
	assert.Equal(t, []string{"a", "b"}, d.NewValue())
}

func TestCopyDiff_MergeChain(t *testing.T) {
	ab := NewCopyDiff("a", "b")
	require.NoError(t, ab.Merge(NewCopyDiff("b", "c")))
	assert.Equal(t, "a", ab.OldValue())
	assert.Equal(t, "c", ab.NewValue())

	ac := NewCopyDiff("a", "c")
	for _, current := range []string{"a", "b", "c"} {
		assert.Equal(t, ac.AppliesCleanly(current) == nil, ab.AppliesCleanly(current) == nil, current)
		assert.Equal(t, ac.ChangesObject(current), ab.ChangesObject(current), current)
	}

	bad := NewCopyDiff("a", "b")
	err := bad.Merge(NewCopyDiff("x", "c"))
	assert.ErrorIs(t, err, ErrMergeConflict)
	assert.Contains(t, err.Error(), "expected old value b, got x")
	assert.Equal(t, "b", bad.NewValue())

	assert.ErrorIs(t, NewCopyDiff(1, 2).Merge(NewDelta(1)), ErrIncompatibleDiff)
	assert.ErrorIs(t, NewCopyDiff(1, 2).Merge(nil), ErrIncompatibleDiff)
}

func TestCopyDiff_WithComparer(t *testing.T) {
	d := NewCopyDiffWith(Tolerance(0.01), 1.0, 2.0)
	assert.NoError(t, d.AppliesCleanly(1.005))
	assert.Error(t, d.AppliesCleanly(1.02))

	folded := NewCopyDiffWith[string](ComparerFunc[string](func(a, b string) bool {
		return len(a) == len(b)
	}), "ab", "cd")
	assert.False(t, folded.ContainsChange())

	var zero CopyDiff[int]
	assert.NoError(t, zero.AppliesCleanly(0))
}

func TestCopyDiff_CloneIsIndependent(t *testing.T) {
	d := NewCopyDiff("a", "b")
	c := d.Clone()
	require.NoError(t, d.Merge(NewCopyDiff("b", "c")))
	assert.Equal(t, "b", c.(*CopyDiff[string]).NewValue())
	assert.Equal(t, "a -> c", d.String())
}

func TestCopyDiff_JSON(t *testing.T) {
	data, err := json.Marshal(NewCopyDiff(1.5, 2.5))
	require.NoError(t, err)
	assert.JSONEq(t, `{"old":1.5,"new":2.5}`, string(data))

	var d CopyDiff[float64]
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, 1.5, d.OldValue())
	assert.Equal(t, 2.5, d.NewValue())
}

func TestNumericDistanceDiff(t *testing.T) {
	d := NewNumericDistanceDiff(10, 13)
	assert.Equal(t, 3, d.Difference())
	assert.Equal(t, KindDelta, d.Kind())
	assert.True(t, d.ContainsChange())
	assert.True(t, d.ChangesObject(-100))
	assert.NoError(t, d.AppliesCleanly(-100))

	v := 100
	require.NoError(t, d.ApplyInto(&v))
	assert.Equal(t, 103, v)

	assert.False(t, NewNumericDistanceDiff(4.5, 4.5).ContainsChange())
	assert.Equal(t, "3", d.String())
}

func TestNumericDistanceDiff_Unsigned(t *testing.T) {
	d := NewNumericDistanceDiff[uint8](200, 10)
	v := uint8(200)
	require.NoError(t, d.ApplyInto(&v))
	assert.Equal(t, uint8(10), v)
}

func TestNumericDistanceDiff_MergeAssociative(t *testing.T) {
	deltas := [][3]int64{{1, 2, 3}, {-5, 5, 0}, {100, -1, 7}}
	for _, ds := range deltas {
		left := NewDelta(ds[0])
		require.NoError(t, left.Merge(NewDelta(ds[1])))
		require.NoError(t, left.Merge(NewDelta(ds[2])))

		inner := NewDelta(ds[1])
		require.NoError(t, inner.Merge(NewDelta(ds[2])))
		right := NewDelta(ds[0])
		require.NoError(t, right.Merge(inner))

		assert.Equal(t, left.Difference(), right.Difference())
	}

	assert.ErrorIs(t, NewDelta(1).Merge(NewCopyDiff(1, 2)), ErrIncompatibleDiff)
}

func TestNumericDistanceDiff_JSON(t *testing.T) {
	data, err := json.Marshal(NewDelta(-2.5))
	require.NoError(t, err)
	assert.JSONEq(t, `{"difference":-2.5}`, string(data))

	var d NumericDistanceDiff[float64]
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, -2.5, d.Difference())
}

func TestDiffKind_Text(t *testing.T) {
	for _, k := range []DiffKind{KindCopy, KindDelta} {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var back DiffKind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}
	_, err := DiffKind(9).MarshalText()
	assert.Error(t, err)
	var k DiffKind
	assert.Error(t, k.UnmarshalText([]byte("swap")))
	assert.Equal(t, "DiffKind(9)", DiffKind(9).String())
}

// kindOf shows the exhaustive switch callers write over the two diff types.
func kindOf[F Numeric](d Diff[F]) string {
	switch d.(type) {
	case *CopyDiff[F]:
		return "copy"
	case *NumericDistanceDiff[F]:
		return "delta"
	}
	return "unknown"
}

func TestDiff_TypeSwitch(t *testing.T) {
	assert.Equal(t, "copy", kindOf[int](NewCopyDiff(1, 2)))
	assert.Equal(t, "delta", kindOf[int](NewDelta(1)))
}
