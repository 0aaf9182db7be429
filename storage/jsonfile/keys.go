package jsonfile

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// storageKey derives the on-disk file stem for a record ID. Hashing
// keeps filenames fixed-length and safe regardless of what characters
// the upstream catalog puts in its IDs.
func storageKey(recordID string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(recordID))
	return hex.EncodeToString(h.Sum(nil))
}
