// utils/valid_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeEmail(t *testing.T) {
	email, err := SanitizeEmail("  Buyer@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", email)

	_, err = SanitizeEmail("not-an-email")
	assert.Error(t, err)
}

func TestSanitizePhone(t *testing.T) {
	phone, err := SanitizePhone("+55 (11) 99999-0000")
	require.NoError(t, err)
	assert.Equal(t, "+5511999990000", phone)

	// Empty is allowed, phone is optional
	phone, err = SanitizePhone("")
	require.NoError(t, err)
	assert.Empty(t, phone)

	_, err = SanitizePhone("123")
	assert.Error(t, err)
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Passw0rd"))
	assert.False(t, IsStrongPassword("short1A"))
	assert.False(t, IsStrongPassword("alllowercase1"))
	assert.False(t, IsStrongPassword("ALLUPPERCASE1"))
	assert.False(t, IsStrongPassword("NoDigitsHere"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "curso-de-vendas-2026", Slugify("  Curso de Vendas 2026! "))
	assert.Equal(t, "a-b", Slugify("a---b"))
}
