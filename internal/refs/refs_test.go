package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	enc, err := New("test-salt", DefaultMinLength)
	require.NoError(t, err)

	for _, id := range []int64{1, 2, 42, 1 << 40} {
		ref := enc.Encode(id)
		assert.GreaterOrEqual(t, len(ref), DefaultMinLength)

		got, err := enc.Decode(ref)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	assert.NotEqual(t, enc.Encode(1), enc.Encode(2))
}

func TestSaltChangesReferences(t *testing.T) {
	a, err := New("salt-a", DefaultMinLength)
	require.NoError(t, err)
	b, err := New("salt-b", DefaultMinLength)
	require.NoError(t, err)
	assert.NotEqual(t, a.Encode(7), b.Encode(7))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	enc, err := New("test-salt", DefaultMinLength)
	require.NoError(t, err)

	for _, ref := range []string{"", "!!!!", "0"} {
		_, err := enc.Decode(ref)
		assert.ErrorIs(t, err, ErrInvalidRef, "ref %q", ref)
	}

	_, err = New("", DefaultMinLength)
	assert.Error(t, err)
}
