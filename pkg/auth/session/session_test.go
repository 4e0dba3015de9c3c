package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer, err := New("test-secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	token, err := issuer.Issue("usr_abc123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("expected three-part token, got %q", token)
	}

	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "usr_abc123" {
		t.Errorf("expected user ID usr_abc123, got %q", userID)
	}
}

func TestNewEmptySecret(t *testing.T) {
	_, err := New("")
	if !errors.Is(err, ErrNoSecret) {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
}

func TestIssueEmptyUserID(t *testing.T) {
	issuer, err := New("test-secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := issuer.Issue(""); err == nil {
		t.Error("expected error for empty user ID")
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	issuer, err := New("test-secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	token, err := issuer.Issue("usr_abc123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Flip a character in the signature segment.
	last := token[len(token)-1]
	replacement := byte('A')
	if last == 'A' {
		replacement = 'B'
	}
	tampered := token[:len(token)-1] + string(replacement)

	if _, err := issuer.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, err := New("secret-one")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	other, err := New("secret-two")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	token, err := issuer.Issue("usr_abc123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	issuer, err := New("test-secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, tok := range []string{"", "garbage", "a.b.c", "a.b"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	clock := time.Now()
	issuer, err := New("test-secret",
		WithTTL(time.Hour),
		WithNow(func() time.Time { return clock }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	token, err := issuer.Issue("usr_abc123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Still valid just before expiry.
	clock = clock.Add(59 * time.Minute)
	if _, err := issuer.Verify(token); err != nil {
		t.Fatalf("Verify before expiry failed: %v", err)
	}

	// Invalid after expiry.
	clock = clock.Add(2 * time.Minute)
	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerifyUnsignedToken(t *testing.T) {
	issuer, err := New("test-secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// alg=none token with a valid-looking payload.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJzdWIiOiJ1c3JfYWJjMTIzIn0."
	if _, err := issuer.Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestSetCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "token-value", true)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	c := cookies[0]
	if c.Name != CookieName {
		t.Errorf("expected cookie name %q, got %q", CookieName, c.Name)
	}
	if c.Value != "token-value" {
		t.Errorf("expected cookie value token-value, got %q", c.Value)
	}
	if !c.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if !c.Secure {
		t.Error("expected Secure cookie")
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Errorf("expected SameSite=Strict, got %v", c.SameSite)
	}
	if c.MaxAge != int(TokenTTL/time.Second) {
		t.Errorf("expected MaxAge %d, got %d", int(TokenTTL/time.Second), c.MaxAge)
	}
	if c.Path != "/" {
		t.Errorf("expected Path /, got %q", c.Path)
	}
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec, false)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	c := cookies[0]
	if c.Name != CookieName {
		t.Errorf("expected cookie name %q, got %q", CookieName, c.Name)
	}
	if c.Value != "" {
		t.Errorf("expected empty cookie value, got %q", c.Value)
	}
	if c.MaxAge >= 0 {
		t.Errorf("expected negative MaxAge, got %d", c.MaxAge)
	}
}
