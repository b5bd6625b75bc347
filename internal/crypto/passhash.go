// Package crypto derives and checks account password credentials with Argon2id.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Params tunes Argon2id.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// Default is the server setting.
var Default = Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// Fast trades strength for speed in tests and throwaway in-memory servers.
var Fast = Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// Credential is the stored form of a password.
type Credential struct {
	Salt []byte
	Hash []byte
}

// ErrEmptyPassword is returned when deriving a credential from "".
var ErrEmptyPassword = errors.New("empty password")

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

func (p Params) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// New derives a credential for password under a fresh random salt.
func (p Params) New(password string) (Credential, error) {
	if password == "" {
		return Credential{}, ErrEmptyPassword
	}
	salt, err := randBytes(p.SaltLen)
	if err != nil {
		return Credential{}, err
	}
	return Credential{Salt: salt, Hash: p.derive(password, salt)}, nil
}

// Verify reports whether password matches c. A zero credential never matches
// but still costs one derivation, so unknown accounts take as long as known ones.
func (p Params) Verify(password string, c Credential) bool {
	if len(c.Salt) == 0 || len(c.Hash) == 0 {
		_ = p.derive(password, make([]byte, p.SaltLen))
		return false
	}
	got := argon2.IDKey([]byte(password), c.Salt, p.Time, p.Memory, p.Threads, uint32(len(c.Hash)))
	return subtle.ConstantTimeCompare(got, c.Hash) == 1
}
