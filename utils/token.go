package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
)

const (
	tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeCharset  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O, 1/I
)

func GenerateRandomToken(length int) string {
	return randomString(tokenCharset, length)
}

// GenerateResetCode returns a short code meant to be typed by a human.
func GenerateResetCode() string {
	return randomString(codeCharset, 6)
}

// HashResetCode is what gets stored for a reset code. Case and surrounding
// spaces are ignored.
func HashResetCode(code string) string {
	sum := sha256.Sum256([]byte(strings.ToUpper(strings.TrimSpace(code))))
	return hex.EncodeToString(sum[:])
}

func randomString(charset string, length int) string {
	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		out[i] = charset[n.Int64()]
	}
	return string(out)
}
