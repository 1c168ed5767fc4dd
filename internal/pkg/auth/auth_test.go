package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	id, secret, full, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, secret)
	assert.Equal(t, id+"."+secret, full)

	hash, err := HashSecret(secret)
	require.NoError(t, err)
	assert.True(t, VerifySecret(hash, secret))
	assert.False(t, VerifySecret(hash, "wrong"))
}

func TestSplitKey(t *testing.T) {
	id, secret, err := SplitKey("abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, "def", secret)

	for _, key := range []string{"", "nodot", ".secret", "id."} {
		_, _, err := SplitKey(key)
		assert.Error(t, err, "key %q", key)
	}
}
