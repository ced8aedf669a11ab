package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Hash returns the hex SHA-256 digest of data. The server and CLI use it as
// the content hash of a graph file, which sessions record to detect that
// the graph changed underneath them.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digestKey builds "kind:<hex digest>" over parts. Each part is length
// prefixed, so ("ab", "c") and ("a", "bc") never share a key.
func digestKey(kind string, parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
