package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString creates a SHA-256 hash of the input string
func HashString(input string) string {
	h := sha256.New()
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

// MaskPhone returns a short, stable fingerprint of a phone number for log lines
func MaskPhone(phone string) string {
	if phone == "" {
		return "-"
	}
	return HashString(phone)[:12]
}
