// Package integration provides integration tests for the flock API.
//
// Tests run against a real flock HTTP server backed by the in-memory
// store, started in-process using net/http/httptest. Each test creates
// its own client with a cookie jar, so sessions behave exactly as they
// do for a browser.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/flock-social/flock/pkg/api"
	"github.com/flock-social/flock/pkg/auth"
	"github.com/flock-social/flock/pkg/auth/session"
	"github.com/flock-social/flock/pkg/storage/memory"
	transporthttp "github.com/flock-social/flock/pkg/transport/http"
)

// testEnv holds the shared server for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the flock server under test.
type TestEnvironment struct {
	Server *httptest.Server
}

// BaseURL returns the server's base URL.
func (e *TestEnvironment) BaseURL() string {
	return e.Server.URL
}

// Teardown shuts down the server.
func (e *TestEnvironment) Teardown() {
	e.Server.Close()
}

// TestMain starts the flock server before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment creates a flock server over the in-memory store.
func setupTestEnvironment() *TestEnvironment {
	store := memory.New()

	sessions, err := session.New("integration-test-secret")
	if err != nil {
		panic(fmt.Sprintf("creating session issuer: %v", err))
	}

	cfg := transporthttp.DefaultConfig()
	cfg.SecureCookies = false // httptest serves plain HTTP

	a := transporthttp.NewAPI(store, sessions, auth.NewLoginLimiter(0), cfg)

	return &TestEnvironment{
		Server: httptest.NewServer(a.Handler()),
	}
}

// userCounter makes generated usernames unique across tests.
var userCounter atomic.Int64

// nextUsername returns a fresh username.
func nextUsername() string {
	return fmt.Sprintf("it_user_%d", userCounter.Add(1))
}

// newClient returns an HTTP client with a cookie jar, so session cookies
// set by signup/login are sent on subsequent requests.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// doJSON sends a request with an optional JSON body and returns the response.
func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// getURL fetches a URL with the default client (no cookies).
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

// decodeBody decodes the response body into v.
func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
}

// errorMessage extracts the error message from an error response body.
func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body api.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Error == nil {
		t.Fatal("response has no error field")
	}
	return body.Error.Message
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// signup registers a new user through the API and returns it. The client's
// cookie jar holds the session cookie afterwards.
func signup(t *testing.T, client *http.Client, username string) *api.User {
	t.Helper()

	resp := doJSON(t, client, http.MethodPost, testEnv.BaseURL()+"/api/auth/signup", api.SignupRequest{
		Username: username,
		FullName: "Integration Test",
		Email:    username + "@example.com",
		Password: "hunter22",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201 (body: %s)", resp.StatusCode, readBody(t, resp))
	}

	var u api.User
	decodeBody(t, resp, &u)
	return &u
}
