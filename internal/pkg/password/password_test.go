package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("supersecret")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", hash)

	assert.True(t, Verify("supersecret", hash))
	assert.False(t, Verify("wrongpassword", hash))
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("some-refresh-token")
	h2 := HashToken("some-refresh-token")
	h3 := HashToken("another-token")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // hex-encoded SHA256
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate("12345678"))
	assert.False(t, Validate("1234567"))
	assert.False(t, Validate(""))
}
