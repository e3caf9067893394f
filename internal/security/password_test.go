package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("S3curePass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if hash == "S3curePass" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}

	if !h.Verify("S3curePass", hash) {
		t.Fatalf("expected Verify to accept the original password")
	}

	if h.Verify("s3curePass", hash) {
		t.Fatalf("expected Verify to reject a different password")
	}
}

func TestHasher_SaltedPerCall(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("S3curePass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("S3curePass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if a == b {
		t.Fatalf("expected different hashes for the same input")
	}

	if !h.Verify("S3curePass", a) || !h.Verify("S3curePass", b) {
		t.Fatalf("expected both hashes to verify")
	}
}

func TestHasher_Compare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("S3curePass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	tests := []struct {
		name  string
		hash  string
		plain string
		want  error
	}{
		{name: "match", hash: hash, plain: "S3curePass", want: nil},
		{name: "mismatch", hash: hash, plain: "nope", want: ErrMismatch},
		{name: "empty hash", hash: "", plain: "S3curePass", want: ErrMalformedHash},
		{name: "garbage hash", hash: "not-a-bcrypt-hash", plain: "S3curePass", want: ErrMalformedHash},
		{name: "truncated hash", hash: hash[:20], plain: "S3curePass", want: ErrMalformedHash},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := h.Compare(tc.hash, tc.plain)
			if !errors.Is(got, tc.want) {
				t.Fatalf("Compare() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasher_VerifyFailsClosedOnMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	if h.Verify("anything", "$2a$10$short") {
		t.Fatalf("expected malformed hash to fail verification")
	}
}

func TestNewHasher_CostBounds(t *testing.T) {
	if got := NewHasher(0).Cost(); got != bcrypt.DefaultCost {
		t.Fatalf("cost 0: got %d want %d", got, bcrypt.DefaultCost)
	}
	if got := NewHasher(bcrypt.MaxCost + 1).Cost(); got != bcrypt.DefaultCost {
		t.Fatalf("cost too high: got %d want %d", got, bcrypt.DefaultCost)
	}
	if got := NewHasher(bcrypt.MinCost).Cost(); got != bcrypt.MinCost {
		t.Fatalf("min cost: got %d want %d", got, bcrypt.MinCost)
	}
}
