// Package auth provides request authentication for flock.
//
// Authentication is cookie-based: a signed, time-limited session token is
// issued at signup/login (pkg/auth/session) and verified on every protected
// request by the RequireSession middleware. The middleware resolves the
// token back to a user identity and injects it into the request context;
// downstream handlers perform their own authorization checks.
//
// Tokens are stateless. There is no server-side session table, no refresh,
// and no revocation: logout only clears the client cookie, and a token
// remains verifiable until its fixed 24-hour expiry.
package auth
