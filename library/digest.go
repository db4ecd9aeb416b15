package library

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Digest is a content hash. Revision ids are SHA-1 digests of the artifact
// bytes. Digests encode as lower-case hex text.
type Digest []byte

// ParseDigest decodes a hex digest.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	return Digest(b), nil
}

// MustDigest decodes a hex digest or panics. Use only for constants/tests.
func MustDigest(s string) Digest {
	d, err := ParseDigest(s)
	if err != nil {
		panic(err)
	}
	return d
}

// SHA1Of returns the SHA-1 digest of data.
func SHA1Of(data []byte) Digest {
	sum := sha1.Sum(data)
	return Digest(sum[:])
}

// String returns the hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d)
}

// Equal reports whether both digests hold the same bytes.
func (d Digest) Equal(o Digest) bool {
	return bytes.Equal(d, o)
}

// IsSHA1 reports whether d has the length of a SHA-1 digest.
func (d Digest) IsSHA1() bool {
	return len(d) == sha1.Size
}

// MarshalText encodes the digest as hex.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes hex text.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
