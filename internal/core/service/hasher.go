package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/shingo/auth-api/internal/core/domain"
)

// Default scrypt parameters, sized for roughly 100ms of derivation on
// current server hardware. The parameters are embedded in every digest, so
// they can be raised later without invalidating stored credentials.
const (
	defaultScryptN = 1 << 15
	defaultScryptR = 8
	defaultScryptP = 1
	scryptKeyLen   = 32
	scryptSaltLen  = 16
)

// Hasher derives and verifies scrypt password digests. Each digest embeds
// its own cost parameters and salt:
//
//	$scrypt$n=32768,r=8,p=1$<salt b64>$<key b64>
type Hasher struct {
	n, r, p int
}

// NewHasher returns a Hasher with the default cost parameters.
func NewHasher() *Hasher {
	return &Hasher{n: defaultScryptN, r: defaultScryptR, p: defaultScryptP}
}

// NewHasherWithCost returns a Hasher with explicit cost parameters.
// n must be a power of two greater than one.
func NewHasherWithCost(n, r, p int) *Hasher {
	return &Hasher{n: n, r: r, p: p}
}

// Hash derives a digest from plaintext with a fresh random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, scryptSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(plaintext), salt, h.n, h.r, h.p, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	return fmt.Sprintf(
		"$scrypt$n=%d,r=%d,p=%d$%s$%s",
		h.n, h.r, h.p,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the digest using the parameters embedded in digest and
// compares in constant time. A mismatch returns (false, nil); a digest that
// cannot be parsed returns domain.ErrDataIntegrity, never a silent
// non-match.
func (h *Hasher) Verify(digest, plaintext string) (bool, error) {
	n, r, p, salt, key, err := parseDigest(digest)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrDataIntegrity, err)
	}
	derived, err := scrypt.Key([]byte(plaintext), salt, n, r, p, len(key))
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrDataIntegrity, err)
	}
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

func parseDigest(digest string) (n, r, p int, salt, key []byte, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "scrypt" {
		return 0, 0, 0, nil, nil, fmt.Errorf("unexpected digest format")
	}
	if _, err = fmt.Sscanf(parts[2], "n=%d,r=%d,p=%d", &n, &r, &p); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("parse cost parameters: %v", err)
	}
	if n < 2 || n&(n-1) != 0 || r <= 0 || p <= 0 {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid cost parameters n=%d r=%d p=%d", n, r, p)
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("decode salt: %v", err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("decode key: %v", err)
	}
	if len(key) == 0 {
		return 0, 0, 0, nil, nil, fmt.Errorf("empty derived key")
	}
	return n, r, p, salt, key, nil
}
