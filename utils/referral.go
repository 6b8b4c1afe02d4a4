// utils/referral.go
package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"image/png"
	"math/big"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const referralCodeLength = 8

// GenerateReferralCode generates a random affiliate referral code
func GenerateReferralCode() (string, error) {
	b := make([]byte, referralCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeCharset))))
		if err != nil {
			return "", err
		}
		b[i] = referralCodeCharset[n.Int64()]
	}
	return string(b), nil
}

// ReferralLink builds the storefront signup URL carrying the referral code
func ReferralLink(code string) string {
	base := os.Getenv("STOREFRONT_URL")
	if base == "" {
		base = "https://vitrinehub.com.br"
	}
	return fmt.Sprintf("%s/signup?ref=%s", base, code)
}

// ReferralQRCodeBase64 renders the referral link as a 300x300 QR code PNG,
// base64-encoded for embedding in JSON responses.
func ReferralQRCodeBase64(code string) (string, error) {
	qrCode, err := qr.Encode(ReferralLink(code), qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", fmt.Errorf("failed to scale QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", fmt.Errorf("failed to render QR code PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
