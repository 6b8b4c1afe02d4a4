// utils/referral_test.go
package utils

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		assert.Len(t, code, referralCodeLength)
		for _, ch := range code {
			assert.Contains(t, referralCodeCharset, string(ch))
		}
		seen[code] = true
	}
	// 50 draws from a 36^8 space never collide in practice
	assert.Len(t, seen, 50)
}

func TestReferralLink(t *testing.T) {
	t.Setenv("STOREFRONT_URL", "https://shop.example.com")
	assert.Equal(t, "https://shop.example.com/signup?ref=ABC12345", ReferralLink("ABC12345"))

	t.Setenv("STOREFRONT_URL", "")
	assert.True(t, strings.HasSuffix(ReferralLink("ABC12345"), "/signup?ref=ABC12345"))
}

func TestReferralQRCodeBase64(t *testing.T) {
	encoded, err := ReferralQRCodeBase64("ABC12345")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.True(t, len(raw) > 0)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}
