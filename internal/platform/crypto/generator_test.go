package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureRandomString(t *testing.T) {
	s, err := GenerateSecureRandomString(32)
	require.NoError(t, err)

	assert.Equal(t, base64.RawURLEncoding.EncodedLen(32), len(s))
	assert.False(t, strings.ContainsAny(s, "+/="))

	other, err := GenerateSecureRandomString(32)
	require.NoError(t, err)
	assert.NotEqual(t, s, other)
}

func TestGenerateSecureRandomString_RejectsNonPositive(t *testing.T) {
	_, err := GenerateSecureRandomString(0)
	assert.Error(t, err)
}
