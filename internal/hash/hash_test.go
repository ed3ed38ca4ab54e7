package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheck(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("Passw0rd1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd1", h)

	assert.True(t, CheckPassword(h, "Passw0rd1"))
	assert.False(t, CheckPassword(h, "Passw0rd2"))
	assert.False(t, CheckPassword("not-a-hash", "Passw0rd1"))
}
