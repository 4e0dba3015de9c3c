package api

import (
	"encoding/json"
	"testing"
)

func TestAPIErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with param",
			err:  NewInvalidRequestError("email", "Invalid email format"),
			want: "invalid_request: Invalid email format (param: email)",
		},
		{
			name: "without param",
			err:  NewUnauthorizedError("Unauthorized: Invalid Token"),
			want: "unauthorized: Unauthorized: Invalid Token",
		},
		{
			name: "server error",
			err:  NewServerError("Internal Server Error"),
			want: "server_error: Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorConstructorTypes(t *testing.T) {
	tests := []struct {
		err  *APIError
		want ErrorType
	}{
		{NewInvalidRequestError("p", "m"), ErrorTypeInvalidRequest},
		{NewUnauthorizedError("m"), ErrorTypeUnauthorized},
		{NewForbiddenError("m"), ErrorTypeForbidden},
		{NewNotFoundError("m"), ErrorTypeNotFound},
		{NewConflictError("p", "m"), ErrorTypeConflict},
		{NewTooManyRequestsError("m"), ErrorTypeTooManyRequests},
		{NewServerError("m"), ErrorTypeServerError},
	}
	for _, tt := range tests {
		if tt.err.Type != tt.want {
			t.Errorf("expected type %s, got %s", tt.want, tt.err.Type)
		}
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := ErrorResponse{Error: NewNotFoundError("User not found")}
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `{"error":{"type":"not_found","message":"User not found"}}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}
