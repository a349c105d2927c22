package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal, looks non-random", n)
	}
}

func TestHashPassword_EncodedFormAndSalting(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("p@ssw0rd")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(h1, "$argon2id$v=19$m=65536,t=3,p=1$") {
		t.Fatalf("unexpected encoding: %s", h1)
	}
	if n := strings.Count(h1, "$"); n != 5 {
		t.Fatalf("want 5 separators, got %d in %s", n, h1)
	}

	h2, err := HashPassword("p@ssw0rd")
	if err != nil {
		t.Fatalf("HashPassword(2): %v", err)
	}
	if h1 == h2 {
		t.Fatalf("same password must hash differently with fresh salts")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword: expected true for correct password, err=%v", err)
	}
	if ok, _ := VerifyPassword("wrong", hash); ok {
		t.Fatalf("VerifyPassword: expected false for wrong password")
	}
	if ok, _ := VerifyPassword("", hash); ok {
		t.Fatalf("VerifyPassword: expected false for empty password")
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$garbage$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=1$!!!$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$",
	} {
		if _, err := VerifyPassword("x", bad); err != ErrMalformedHash {
			t.Fatalf("%q: want ErrMalformedHash, got %v", bad, err)
		}
	}
}
