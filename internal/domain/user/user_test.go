package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	u, err := New("  ", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultName, u.Name)
	assert.NotEmpty(t, u.ID)

	u2, err := New("Bob", 15, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bob", u2.Name)
	assert.Equal(t, int64(15), u2.Points)
	assert.NotEqual(t, u.ID, u2.ID)

	_, err = New("Bob", -1, nil)
	require.ErrorIs(t, err, ErrNegativePoints)
}
