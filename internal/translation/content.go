package translation

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

var bom = []byte("\xef\xbb\xbf")

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, bom)
}

// normalize strips a UTF-8 BOM, converts CRLF to LF and trims surrounding
// whitespace. Invalid UTF-8 is kept byte for byte.
func normalize(b []byte) []byte {
	b = bytes.ReplaceAll(stripBOM(b), []byte("\r\n"), []byte("\n"))
	return bytes.TrimSpace(b)
}

// Digest returns the hex SHA-256 of the normalized content.
func Digest(b []byte) string {
	sum := sha256.Sum256(normalize(b))
	return hex.EncodeToString(sum[:])
}

// sameContent reports whether the installed pack matches remote. A local
// file that is not valid UTF-8 never matches.
func sameContent(local, remote []byte) bool {
	if !utf8.Valid(stripBOM(local)) {
		return false
	}
	return Digest(local) == Digest(remote)
}

// withBOM returns content as the game expects it on disk: exactly one
// leading BOM, the rest untouched.
func withBOM(b []byte) []byte {
	out := make([]byte, 0, len(bom)+len(b))
	out = append(out, bom...)
	return append(out, stripBOM(b)...)
}
