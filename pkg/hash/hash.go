package hash

import (
	"crypto/md5"
	"encoding/hex"
)

// ShortLen is the number of hex characters kept by Short.
const ShortLen = 8

// MD5Bytes returns the full MD5 hash of a byte slice.
func MD5Bytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// Short truncates a hex digest for display. Digests shorter than ShortLen
// are returned unchanged.
func Short(digest string) string {
	if len(digest) < ShortLen {
		return digest
	}
	return digest[:ShortLen]
}
