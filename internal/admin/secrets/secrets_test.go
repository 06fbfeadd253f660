package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "smartration/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Admin@123")
	require.NoError(t, err)
	assert.NotEqual(t, "Admin@123", hash)

	require.NoError(t, Verify("Admin@123", hash))

	err = Verify("wrong", hash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHashRejectsBadInput(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Hash(strings.Repeat("x", 80))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestVerifyMalformedHash(t *testing.T) {
	err := Verify("Admin@123", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
