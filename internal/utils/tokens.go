package utils

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"math/big"
)

// tokenCharset deliberately omits 0/O/1/I so rendered challenge tokens stay
// unambiguous.
const tokenCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateSecureToken creates a cryptographically secure random token.
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// RandomToken returns an n-character challenge token drawn from the
// unambiguous charset.
func RandomToken(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(tokenCharset)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tokenCharset[idx.Int64()]
	}
	return string(out), nil
}
