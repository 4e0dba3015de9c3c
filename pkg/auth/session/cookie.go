package session

import (
	"net/http"
	"time"
)

// CookieName is the name of the session cookie.
const CookieName = "jwt"

// SetCookie attaches the session token to the response. The cookie is
// HTTP-only (not accessible to client-side scripts), SameSite=Strict
// (blocks cross-site submission), and expires with the token.
func SetCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie overwrites the session cookie with an empty value and
// Max-Age=0, instructing the client to drop it. The token itself remains
// verifiable until its natural expiry; logout is client-side only.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
