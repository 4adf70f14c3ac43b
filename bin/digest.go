package bin

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// SHA256Hex returns the lowercase hex SHA-256 digest of data, used for the
// manifest's source_sha256/sha256/packed_sha256/unpacked_sha256 fields.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HexEncode returns the lowercase hex encoding of data, used for manifest
// name_raw_hex/reserved_raw_hex/header_raw_hex fields that must preserve
// opaque bytes verbatim.
func HexEncode(data []byte) string {
	return hex.EncodeToString(data)
}

// HexDecode is the inverse of HexEncode.
func HexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

var unsafeRunes = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeComponent maps an arbitrary string (typically bytes decoded from a raw
// name field) to a filesystem-safe path component: non [A-Za-z0-9._-] runs
// collapse to a single underscore, leading/trailing '.', '_', '-' are trimmed,
// the result is capped at maxLen, and fallback is substituted if it's empty.
func SafeComponent(value, fallback string, maxLen int) string {
	clean := unsafeRunes.ReplaceAllString(value, "_")
	clean = strings.Trim(clean, "._-")
	if clean == "" {
		clean = fallback
	}
	if len(clean) > maxLen {
		clean = clean[:maxLen]
	}
	return clean
}
