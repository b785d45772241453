package secrets

import (
	"testing"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "secret123" {
		t.Fatalf("hash equals plaintext")
	}
	if !VerifyPassword(hash, "secret123") {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword(hash, "wrongpass") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	if VerifyPassword("not-a-bcrypt-hash", "whatever") {
		t.Fatalf("malformed stored hash must not verify")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	t.Parallel()

	a := HashToken("abc123")
	b := HashToken("abc123")
	if a != b {
		t.Fatalf("token hash not deterministic: %q vs %q", a, b)
	}
	if a == "abc123" {
		t.Fatalf("digest equals plaintext")
	}
	if c := HashToken("abc124"); c == a {
		t.Fatalf("distinct tokens collided")
	}
}

func TestNewResetToken(t *testing.T) {
	t.Parallel()

	tok, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken error: %v", err)
	}
	if len(tok) != ResetTokenBytes*2 {
		t.Fatalf("token length %d, want %d hex chars", len(tok), ResetTokenBytes*2)
	}
	other, _ := NewResetToken()
	if tok == other {
		t.Fatalf("two generated tokens are identical")
	}
}

func TestNewOTP(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		otp, err := NewOTP()
		if err != nil {
			t.Fatalf("NewOTP error: %v", err)
		}
		if len(otp) != OTPDigits {
			t.Fatalf("otp %q length %d, want %d", otp, len(otp), OTPDigits)
		}
		for _, r := range otp {
			if r < '0' || r > '9' {
				t.Fatalf("otp %q contains non-digit", otp)
			}
		}
	}
}
