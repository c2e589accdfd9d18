package patch

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_Patch(t *testing.T) {
	s := recordSchema(t)
	p := samplePatch(t, s)

	env, err := SealPatch(p)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, env.ID)
	assert.Equal(t, EnvelopePatch, env.Kind)
	assert.Equal(t, "record", env.Schema)
	assert.Equal(t, "4", env.ObjectID)
	assert.False(t, env.CreatedAt.IsZero())

	data, err := json.Marshal(env)
	require.NoError(t, err)
	var back Envelope
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, env.ID, back.ID)

	opened, err := OpenPatch(s, &back)
	require.NoError(t, err)
	assert.Equal(t, p.Changes(), opened.Changes())

	_, err = OpenPartial(s, &back)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestEnvelope_Partial(t *testing.T) {
	s := recordSchema(t)
	p := completePartial(t, s)

	env, err := SealPartial(p)
	require.NoError(t, err)
	assert.Equal(t, EnvelopePartial, env.Kind)
	assert.Equal(t, "1", env.ObjectID)

	opened, err := OpenPartial(s, env)
	require.NoError(t, err)
	assert.True(t, opened.IsComplete())
	assert.True(t, p.IsPartialEqualExisting(opened))

	_, err = OpenPatch(s, env)
	assert.ErrorIs(t, err, ErrMalformedDocument)

	other := MustDerive[account]()
	_, err = OpenPartial(other, env)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestEnvelope_UniqueIDs(t *testing.T) {
	s := recordSchema(t)
	p := samplePatch(t, s)
	a, err := SealPatch(p)
	require.NoError(t, err)
	b, err := SealPatch(p)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
