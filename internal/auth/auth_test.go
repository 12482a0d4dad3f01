package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	hashCost = bcrypt.MinCost
}

func TestIssuerRoundTrip(t *testing.T) {
	iss := NewIssuer("0123456789abcdef0123", 5*time.Minute, 24*time.Hour)

	pair, err := iss.IssuePair(42)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.Access == pair.Refresh {
		t.Fatal("access and refresh tokens must differ")
	}

	id, err := iss.Parse(pair.Access, AccessToken)
	if err != nil || id != 42 {
		t.Fatalf("Parse(access) = %d, %v", id, err)
	}
	id, err = iss.Parse(pair.Refresh, RefreshToken)
	if err != nil || id != 42 {
		t.Fatalf("Parse(refresh) = %d, %v", id, err)
	}
}

func TestIssuerRejects(t *testing.T) {
	iss := NewIssuer("0123456789abcdef0123", 5*time.Minute, 24*time.Hour)
	pair, err := iss.IssuePair(7)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	other := NewIssuer("another-secret-entirely", 5*time.Minute, 24*time.Hour)

	expired := NewIssuer("0123456789abcdef0123", 5*time.Minute, 24*time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, err := expired.Issue(7, AccessToken)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		TokenType:        AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "7", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := []struct {
		name  string
		iss   *Issuer
		token string
		want  TokenType
	}{
		{"refresh used as access", iss, pair.Refresh, AccessToken},
		{"access used as refresh", iss, pair.Access, RefreshToken},
		{"wrong secret", other, pair.Access, AccessToken},
		{"expired", iss, stale, AccessToken},
		{"alg none", iss, none, AccessToken},
		{"garbage", iss, "not.a.jwt", AccessToken},
		{"empty", iss, "", AccessToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.iss.Parse(tc.token, tc.want); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("password stored in clear")
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Fatal("expected match")
	}
	if CheckPassword(hash, "wrong horse battery") {
		t.Fatal("expected mismatch")
	}
	if CheckPassword("not-a-hash", "anything") {
		t.Fatal("corrupt hash must not match")
	}
}

func TestValidatePassword(t *testing.T) {
	attrs := []UserAttribute{
		{Name: "username", Value: "alice"},
		{Name: "email address", Value: "alice.liddell@example.com"},
		{Name: "first name", Value: "Alice"},
		{Name: "last name", Value: "Liddell"},
	}

	cases := []struct {
		name     string
		password string
		want     []string
	}{
		{"strong", "Tr0ub4dor&3x", nil},
		{"too short", "xK9#q", []string{"too short"}},
		{"numeric", "90817263544", []string{"entirely numeric"}},
		{"common", "password", []string{"too common"}},
		{"short numeric common", "123456", []string{"too short", "too common", "entirely numeric"}},
		{"similar to username", "alice2024!", []string{"similar to the username"}},
		{"similar to email part", "Liddell#77", []string{"similar to the email address"}},
		{"too long", strings.Repeat("Zq9!", 19), []string{"too long"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidatePassword(tc.password, attrs...)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d problems %v, want %d", len(got), got, len(tc.want))
			}
			for i, fragment := range tc.want {
				if !strings.Contains(got[i], fragment) {
					t.Fatalf("problem %d = %q, want it to mention %q", i, got[i], fragment)
				}
			}
		})
	}
}
