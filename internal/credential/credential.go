// Package credential derives and checks one-way password hashes.
package credential

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedHash is returned by Verify when the stored hash cannot be parsed.
var ErrMalformedHash = errors.New("credential: malformed password hash")

// Hasher hashes passwords and verifies candidates against stored hashes.
// Verify reports a mismatch as false with a nil error.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, candidate string) (bool, error)
}

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// Options selects the algorithm used for new hashes.
type Options struct {
	Algorithm  string
	BcryptCost int
}

// New returns a Hasher that writes hashes with the configured algorithm and
// verifies hashes produced by any supported algorithm.
func New(opts Options) (Hasher, error) {
	argon := NewArgon2id(DefaultArgon2idParams)
	bc := NewBcrypt(opts.BcryptCost)

	switch strings.ToLower(opts.Algorithm) {
	case "", AlgorithmArgon2id:
		return &multiHasher{primary: argon, argon: argon, bcrypt: bc}, nil
	case AlgorithmBcrypt:
		return &multiHasher{primary: bc, argon: argon, bcrypt: bc}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", opts.Algorithm)
	}
}

type multiHasher struct {
	primary Hasher
	argon   *Argon2id
	bcrypt  *Bcrypt
}

func (m *multiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *multiHasher) Verify(hash, candidate string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, argon2idPrefix):
		return m.argon.Verify(hash, candidate)
	case isBcryptHash(hash):
		return m.bcrypt.Verify(hash, candidate)
	default:
		return false, ErrMalformedHash
	}
}
