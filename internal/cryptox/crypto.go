// Package cryptox implements the credential codec: salted one-way password
// hashing and verification.
//
// Two encodings are understood:
//
//	<saltHex>:<hex(SHA-256(password || saltHex))>            scheme "sha256"
//	argon2id:<saltHex>:<hex(argon2id(password, saltHex))>    scheme "argon2id"
//
// The sha256 form is what the legacy desktop application wrote, so existing
// users keep working. New hashes use argon2id unless configured otherwise.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"golang.org/x/crypto/argon2"
)

// Scheme selects the digest used by Codec.Hash.
type Scheme string

const (
	SchemeSHA256   Scheme = "sha256"
	SchemeArgon2ID Scheme = "argon2id"
)

const (
	saltSize  = 16
	digestLen = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// ParseScheme maps a config string to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeSHA256:
		return SchemeSHA256, nil
	case SchemeArgon2ID, "":
		return SchemeArgon2ID, nil
	}
	return "", fmt.Errorf("%w: unknown password scheme %q", common.ErrValidation, s)
}

// Codec hashes and verifies passwords. The zero value hashes with argon2id.
type Codec struct {
	scheme Scheme
}

// NewCodec returns a codec that writes new hashes with the given scheme.
// Verify always accepts both schemes.
func NewCodec(scheme Scheme) *Codec {
	return &Codec{scheme: scheme}
}

// Hash generates a fresh random salt and returns the encoded hash.
// Two calls with the same password never return the same string.
func (c *Codec) Hash(password string) (string, error) {
	salt, err := common.MakeRandHexString(saltSize)
	if err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	switch c.scheme {
	case SchemeSHA256:
		return salt + ":" + hex.EncodeToString(sha256Digest(password, salt)), nil
	default:
		return string(SchemeArgon2ID) + ":" + salt + ":" + hex.EncodeToString(argonDigest(password, salt)), nil
	}
}

// Verify reports whether password matches encoded. Malformed input yields
// false, never a panic.
func (c *Codec) Verify(password, encoded string) bool {
	scheme, salt, digestHex, ok := split(encoded)
	if !ok {
		return false
	}

	want, err := hex.DecodeString(digestHex)
	if err != nil || len(want) != digestLen {
		return false
	}

	var got []byte
	switch scheme {
	case SchemeSHA256:
		got = sha256Digest(password, salt)
	case SchemeArgon2ID:
		got = argonDigest(password, salt)
	default:
		return false
	}

	return subtle.ConstantTimeCompare(got, want) == 1
}

// split parses encoded on its first ':' and detects the scheme prefix.
// A hex salt can never equal "argon2id", so the two forms cannot collide.
func split(encoded string) (scheme Scheme, salt, digest string, ok bool) {
	head, rest, found := strings.Cut(encoded, ":")
	if !found {
		return "", "", "", false
	}

	scheme = SchemeSHA256
	if head == string(SchemeArgon2ID) {
		scheme = SchemeArgon2ID
		head, rest, found = strings.Cut(rest, ":")
		if !found {
			return "", "", "", false
		}
	}

	if head == "" || rest == "" {
		return "", "", "", false
	}
	return scheme, head, rest, true
}

func sha256Digest(password, salt string) []byte {
	sum := sha256.Sum256([]byte(password + salt))
	return sum[:]
}

func argonDigest(password, salt string) []byte {
	return argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, digestLen)
}
