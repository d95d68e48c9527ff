// Package password hashes and verifies user passwords with argon2id.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash is returned when a stored hash is not a well-formed argon2id PHC string.
var ErrInvalidHash = errors.New("invalid password hash")

// Upper bounds on costs read back from stored hashes.
const (
	maxTime   = 64
	maxMemory = 4 * 1024 * 1024 // KiB
)

// Params controls the argon2id cost.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultParams follows the RFC 9106 second recommended option.
var DefaultParams = Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

// Hasher hashes passwords with a fixed parameter set.
type Hasher struct {
	params Params
	// dummy is verified against when no stored hash exists so that
	// unknown-account checks cost the same as real ones.
	dummy string
}

// NewHasher creates a hasher. Zero params fall back to DefaultParams.
func NewHasher(params Params) (*Hasher, error) {
	if params == (Params{}) {
		params = DefaultParams
	}
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		return nil, errors.New("argon2 time, memory and threads must be positive")
	}
	if params.Time > maxTime || params.Memory > maxMemory {
		return nil, fmt.Errorf("argon2 time must be at most %d and memory at most %d KiB", maxTime, maxMemory)
	}
	if params.KeyLen < 16 || params.SaltLen < 16 {
		return nil, errors.New("argon2 key and salt length must be at least 16 bytes")
	}

	h := &Hasher{params: params}
	dummy, err := h.Hash("orgdesk-timing-equaliser")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy
	return h, nil
}

// Hash returns an argon2id hash string including parameters and salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify checks a password against the encoded argon2id hash. The parameters
// stored in the hash are used, so hashes made with older settings still verify.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	version, err := parseVersion(parts[2])
	if err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	mem, timeCost, threads, err := parseParams(parts[3])
	if err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, ErrInvalidHash
	}

	actual := argon2.IDKey([]byte(password), salt, timeCost, mem, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}

// VerifyDummy burns the same work as Verify against a throwaway hash.
// Always returns false.
func (h *Hasher) VerifyDummy(password string) bool {
	_, _ = h.Verify(password, h.dummy)
	return false
}

func parseVersion(value string) (int, error) {
	if !strings.HasPrefix(value, "v=") {
		return 0, ErrInvalidHash
	}
	return strconv.Atoi(strings.TrimPrefix(value, "v="))
}

func parseParams(value string) (uint32, uint32, uint8, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return 0, 0, 0, ErrInvalidHash
	}

	mem, err := parseUint32Param(parts[0], "m=")
	if err != nil {
		return 0, 0, 0, ErrInvalidHash
	}
	if mem == 0 || mem > maxMemory {
		return 0, 0, 0, ErrInvalidHash
	}
	timeCost, err := parseUint32Param(parts[1], "t=")
	if err != nil || timeCost == 0 || timeCost > maxTime {
		return 0, 0, 0, ErrInvalidHash
	}
	threadsVal, err := parseUint32Param(parts[2], "p=")
	if err != nil || threadsVal == 0 || threadsVal > 255 {
		return 0, 0, 0, ErrInvalidHash
	}
	return mem, timeCost, uint8(threadsVal), nil
}

func parseUint32Param(value, prefix string) (uint32, error) {
	if !strings.HasPrefix(value, prefix) {
		return 0, ErrInvalidHash
	}
	parsed, err := strconv.ParseUint(strings.TrimPrefix(value, prefix), 10, 32)
	if err != nil {
		return 0, ErrInvalidHash
	}
	return uint32(parsed), nil
}
