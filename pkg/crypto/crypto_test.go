package crypto

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretBox_SealOpen(t *testing.T) {
	box, err := NewSecretBox("a passphrase only the server knows")
	require.NoError(t, err)

	sealed, err := box.Seal("client-secret-123")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "client-secret-123")
	assert.Len(t, strings.Split(sealed, "."), 5)

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "client-secret-123", plain)

	again, err := box.Seal("client-secret-123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "fresh nonce per seal")
}

func TestSecretBox_OpenFailures(t *testing.T) {
	box, err := NewSecretBox("key-one")
	require.NoError(t, err)
	other, err := NewSecretBox("key-two")
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.Error(t, err)

	_, err = box.Open("not-a-jwe")
	assert.Error(t, err)

	_, err = NewSecretBox("   ")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "***", Mask("abc"))
	assert.Equal(t, "********wxyz", Mask("abcdefwxyz"))
}

func TestRandomHex(t *testing.T) {
	token, err := RandomHex(8)
	assert.NoError(t, err)
	assert.Len(t, token, 8)

	odd, err := RandomHex(5)
	assert.NoError(t, err)
	assert.Len(t, odd, 5)

	empty, err := RandomHex(0)
	assert.NoError(t, err)
	assert.Empty(t, empty)

	orig := randomRead
	t.Cleanup(func() { randomRead = orig })
	randomRead = func([]byte) (int, error) {
		return 0, errors.New("rand failed")
	}
	_, err = RandomHex(8)
	assert.Error(t, err)
}
