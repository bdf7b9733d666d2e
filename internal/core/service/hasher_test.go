package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/shingo/auth-api/internal/core/domain"
)

func testHasher() *Hasher {
	// Low cost keeps the suite fast; production parameters live in NewHasher.
	return NewHasherWithCost(1<<4, 8, 1)
}

func TestHasher_RoundTrip(t *testing.T) {
	h := testHasher()

	digest, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(digest, "$scrypt$") {
		t.Fatalf("unexpected digest format: %s", digest)
	}

	ok, err := h.Verify(digest, "correct horse battery staple")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Fatalf("correct password rejected")
	}

	ok, err = h.Verify(digest, "wrong password")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if ok {
		t.Fatalf("wrong password accepted")
	}
}

func TestHasher_SaltIsRandom(t *testing.T) {
	h := testHasher()

	a, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	b, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestHasher_VerifyUsesEmbeddedParams(t *testing.T) {
	// A digest produced at one cost must verify with a hasher configured at
	// another, because the parameters travel inside the digest.
	digest, err := NewHasherWithCost(1<<5, 8, 1).Hash("migrating password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	ok, err := testHasher().Verify(digest, "migrating password")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Fatalf("digest with embedded params rejected")
	}
}

func TestHasher_MalformedDigest(t *testing.T) {
	h := testHasher()

	for _, digest := range []string{
		"",
		"plaintext",
		"$bcrypt$whatever",
		"$scrypt$n=0,r=8,p=1$c2FsdA$a2V5",
		"$scrypt$n=16,r=8,p=1$!!!$a2V5",
	} {
		if _, err := h.Verify(digest, "anything"); !errors.Is(err, domain.ErrDataIntegrity) {
			t.Fatalf("digest %q: expected ErrDataIntegrity, got %v", digest, err)
		}
	}
}
