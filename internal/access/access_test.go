package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	c := New("alice")

	assert.NoError(t, c.Guard("alice"))
	assert.ErrorIs(t, c.Guard("bob"), ErrUnauthorized)
	assert.ErrorIs(t, c.Guard(""), ErrUnauthorized)
}

func TestTransfer(t *testing.T) {
	c := New("alice")

	assert.ErrorIs(t, c.Transfer("bob", "bob"), ErrUnauthorized)
	assert.Equal(t, "alice", c.Owner)

	require.NoError(t, c.Transfer("alice", "bob"))
	assert.Equal(t, "bob", c.Owner)
	assert.ErrorIs(t, c.Guard("alice"), ErrUnauthorized)
	assert.NoError(t, c.Guard("bob"))
}

func TestRenounceIsPermanent(t *testing.T) {
	c := New("alice")

	assert.ErrorIs(t, c.Renounce("bob"), ErrUnauthorized)
	require.NoError(t, c.Renounce("alice"))
	assert.True(t, c.Renounced())

	assert.ErrorIs(t, c.Guard("alice"), ErrUnauthorized)
	assert.ErrorIs(t, c.Guard(""), ErrUnauthorized)
	assert.ErrorIs(t, c.Transfer("", "mallory"), ErrUnauthorized)
	assert.ErrorIs(t, c.Renounce(""), ErrUnauthorized)
}
