package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	password := "mySecretPassword123"

	hashed, err := h.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hashed)

	assert.True(t, h.Verify(password, hashed))
	assert.False(t, h.Verify("notMyPassword", hashed))
	assert.False(t, h.Verify(password, "not-a-bcrypt-hash"))

	again, err := h.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, hashed, again, "hashes are salted")
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, DefaultPasswordCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultPasswordCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
