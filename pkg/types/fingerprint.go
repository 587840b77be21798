package types

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Fingerprint identifies a specific analyzable version of a document:
// a git-blob-style SHA-1 content hash (20 bytes) combined with the
// language id at key time.
type Fingerprint [20]byte

// ComputeFingerprint computes SHA-1("doc {len}\0{content}").
func ComputeFingerprint(content string) Fingerprint {
	h := sha1.New()
	fmt.Fprintf(h, "doc %d\x00", len(content))
	h.Write([]byte(content))

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// Hex returns the 40-character hex form.
func (fp Fingerprint) Hex() string {
	return hex.EncodeToString(fp[:])
}

// String implements Stringer (returns Hex()).
func (fp Fingerprint) String() string {
	return fp.Hex()
}

// Key combines the fingerprint with a language id into a cache key.
// Identical content analyzed as a different language is a different key.
func (fp Fingerprint) Key(languageID string) string {
	return fp.Hex() + ":" + languageID
}
