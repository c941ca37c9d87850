package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec("super-secret", "edubook-api", WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("  ", "edubook-api"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testCodec(t, now)

	claims := Claims{
		Email:        "dean@college.edu",
		Role:         "college_admin",
		CollegeID:    "01JC8YV7W2K3R9T4N5P6Q7S8E9",
		AcademicYear: 2,
	}
	claims.Subject = "01JC8YV7W2K3R9T4N5P6Q7S8AA"

	raw, expiresAt, err := c.Sign(claims, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if got, want := expiresAt, now.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", got, want)
	}

	got, err := c.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Subject != claims.Subject {
		t.Fatalf("subject = %q, want %q", got.Subject, claims.Subject)
	}
	if got.Role != "college_admin" || got.CollegeID != claims.CollegeID {
		t.Fatalf("claims not preserved: %+v", got)
	}
	if got.ID == "" {
		t.Fatal("jti not populated")
	}
	if !got.ExpiresAt.Time.Equal(expiresAt) {
		t.Fatalf("exp claim %v != returned expiry %v", got.ExpiresAt.Time, expiresAt)
	}
}

func TestSignRejectsMissingSubject(t *testing.T) {
	c := testCodec(t, time.Now())
	if _, _, err := c.Sign(Claims{Role: "student"}, time.Hour); err == nil {
		t.Fatal("expected error for missing subject")
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testCodec(t, now)

	claims := Claims{Role: "student"}
	claims.Subject = "user-1"
	raw, _, err := c.Sign(claims, time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// Advance the clock past expiry.
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := c.Verify(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	now := time.Now()
	c := testCodec(t, now)

	claims := Claims{Role: "student"}
	claims.Subject = "user-1"
	raw, _, err := c.Sign(claims, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other, err := NewCodec("different-secret", "edubook-api", WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if _, err := other.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyWrongIssuer(t *testing.T) {
	now := time.Now()
	other, err := NewCodec("super-secret", "someone-else", WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	claims := Claims{Role: "student"}
	claims.Subject = "user-1"
	raw, _, err := other.Sign(claims, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	c := testCodec(t, now)
	if _, err := c.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyWrongSigningMethod(t *testing.T) {
	now := time.Now()
	c := testCodec(t, now)

	claims := Claims{Role: "student"}
	claims.Subject = "user-1"
	claims.Issuer = "edubook-api"
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	raw, err := tok.SignedString([]byte("super-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	if _, err := c.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	c := testCodec(t, time.Now())
	for _, raw := range []string{"", "   ", "not-a-token", "a.b.c"} {
		if _, err := c.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Verify(%q) = %v, want ErrTokenInvalid", raw, err)
		}
	}
}
