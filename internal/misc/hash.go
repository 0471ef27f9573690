package misc

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"io"
	"strings"
)

func keyed(value []byte, key string) hash.Hash {
	h := sha256.New()
	h.Write(value)
	_, _ = io.WriteString(h, key)
	return h
}

// SumSHA256 is the hex SHA-256 of value followed by key, the HashSHA256 header value.
// value is never modified.
func SumSHA256(value []byte, key string) string {
	return hex.EncodeToString(keyed(value, key).Sum(nil))
}

// VerifySHA256 reports whether sig is the HashSHA256 signature of value under key.
// sig may use either hex case; the digests are compared in constant time.
func VerifySHA256(value []byte, key, sig string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(sig))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	return subtle.ConstantTimeCompare(keyed(value, key).Sum(nil), got) == 1
}
