package integration

import (
	"net/http"
	"testing"

	"github.com/flock-social/flock/pkg/api"
)

func TestSignupSetsSessionCookie(t *testing.T) {
	client := newClient(t)
	username := nextUsername()

	resp := doJSON(t, client, http.MethodPost, testEnv.BaseURL()+"/api/auth/signup", api.SignupRequest{
		Username: username,
		FullName: "Session Test",
		Email:    username + "@example.com",
		Password: "hunter22",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", resp.StatusCode)
	}

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			found = true
			if c.Value == "" {
				t.Error("jwt cookie value is empty")
			}
			if !c.HttpOnly {
				t.Error("jwt cookie must be HttpOnly")
			}
			if c.SameSite != http.SameSiteStrictMode {
				t.Errorf("jwt cookie SameSite = %v, want Strict", c.SameSite)
			}
			if c.MaxAge != 86400 {
				t.Errorf("jwt cookie MaxAge = %d, want 86400", c.MaxAge)
			}
		}
	}
	if !found {
		t.Fatal("signup did not set a jwt cookie")
	}

	// The session from signup authenticates /api/auth/me.
	me := doJSON(t, client, http.MethodGet, testEnv.BaseURL()+"/api/auth/me", nil)
	defer me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", me.StatusCode)
	}

	var u api.User
	decodeBody(t, me, &u)
	if u.Username != username {
		t.Errorf("me username = %q, want %q", u.Username, username)
	}
	if u.Email != username+"@example.com" {
		t.Errorf("me email = %q, want %q", u.Email, username+"@example.com")
	}
}

func TestProtectedRouteWithoutCookie(t *testing.T) {
	resp := doJSON(t, &http.Client{}, http.MethodGet, testEnv.BaseURL()+"/api/auth/me", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Unauthorized: No Token Provided" {
		t.Errorf("message = %q, want %q", msg, "Unauthorized: No Token Provided")
	}
}

func TestProtectedRouteWithGarbageCookie(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, testEnv.BaseURL()+"/api/auth/me", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "not-a-real-token"})

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Unauthorized: Invalid Token" {
		t.Errorf("message = %q, want %q", msg, "Unauthorized: Invalid Token")
	}
}

func TestLoginAndLogout(t *testing.T) {
	username := nextUsername()
	signup(t, newClient(t), username)

	// Fresh client, no cookies yet.
	client := newClient(t)

	resp := doJSON(t, client, http.MethodPost, testEnv.BaseURL()+"/api/auth/login", api.LoginRequest{
		Username: username,
		Password: "hunter22",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	me := doJSON(t, client, http.MethodGet, testEnv.BaseURL()+"/api/auth/me", nil)
	me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me after login status = %d, want 200", me.StatusCode)
	}

	// Logout clears the cookie.
	logout := doJSON(t, client, http.MethodPost, testEnv.BaseURL()+"/api/auth/logout", nil)
	defer logout.Body.Close()
	if logout.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", logout.StatusCode)
	}
	for _, c := range logout.Cookies() {
		if c.Name == "jwt" && c.Value != "" {
			t.Error("logout should clear the jwt cookie")
		}
	}

	// The jar dropped the cookie, so the next request is anonymous.
	me2 := doJSON(t, client, http.MethodGet, testEnv.BaseURL()+"/api/auth/me", nil)
	defer me2.Body.Close()
	if me2.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", me2.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	username := nextUsername()
	signup(t, newClient(t), username)

	client := newClient(t)
	resp := doJSON(t, client, http.MethodPost, testEnv.BaseURL()+"/api/auth/login", api.LoginRequest{
		Username: username,
		Password: "wrong-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Invalid username or password" {
		t.Errorf("message = %q, want %q", msg, "Invalid username or password")
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	username := nextUsername()
	signup(t, newClient(t), username)

	resp := doJSON(t, newClient(t), http.MethodPost, testEnv.BaseURL()+"/api/auth/signup", api.SignupRequest{
		Username: username,
		FullName: "Dup",
		Email:    "other_" + username + "@example.com",
		Password: "hunter22",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Username is already taken" {
		t.Errorf("message = %q, want %q", msg, "Username is already taken")
	}
}

func TestSignupNeverReturnsPassword(t *testing.T) {
	client := newClient(t)
	username := nextUsername()

	resp := doJSON(t, client, http.MethodPost, testEnv.BaseURL()+"/api/auth/signup", api.SignupRequest{
		Username: username,
		FullName: "No Leak",
		Email:    username + "@example.com",
		Password: "hunter22",
	})
	defer resp.Body.Close()

	body := readBody(t, resp)
	for _, needle := range []string{"hunter22", "password", "$2a$"} {
		if containsFold(body, needle) {
			t.Errorf("signup response leaks %q: %s", needle, body)
		}
	}
}
