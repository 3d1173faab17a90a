package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubValidator accepts a fixed set of tokens, standing in for the auth
// provider's JWT service.
type stubValidator struct {
	tokens map[string]uuid.UUID
}

func newStubValidator() *stubValidator {
	return &stubValidator{tokens: make(map[string]uuid.UUID)}
}

func (v *stubValidator) accept(token string, userID uuid.UUID) {
	v.tokens[token] = userID
}

func (v *stubValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	userID, ok := v.tokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return stubClaims{userID: userID}, nil
}

type stubClaims struct {
	userID uuid.UUID
}

func (c stubClaims) GetUserID() uuid.UUID {
	return c.userID
}

// wrap applies the middleware to a handler that records whether it ran
// and which user ID it saw.
func wrap(validator TokenValidator, called *bool, seen *uuid.UUID) http.Handler {
	return AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if seen != nil {
			if userID, err := GetUserID(r); err == nil {
				*seen = userID
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	validator := newStubValidator()
	userID := uuid.New()
	validator.accept("coach-session-token", userID)

	var called bool
	var seen uuid.UUID
	handler := wrap(validator, &called, &seen)

	req := httptest.NewRequest(http.MethodGet, "/users/"+userID.String()+"/analyses", nil)
	req.Header.Set("Authorization", "Bearer coach-session-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called, "handler should run for a valid token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, seen, "token's user ID should reach the handler")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	var called bool
	handler := wrap(newStubValidator(), &called, nil)

	req := httptest.NewRequest(http.MethodGet, "/analyses/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called, "handler should not run without credentials")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Unauthorized")
}

func TestAuthMiddleware_HeaderFormat(t *testing.T) {
	validator := newStubValidator()
	userID := uuid.New()
	validator.accept("coach-session-token", userID)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"canonical bearer", "Bearer coach-session-token", http.StatusOK},
		{"lowercase scheme", "bearer coach-session-token", http.StatusOK},
		{"mixed-case scheme", "BeArEr coach-session-token", http.StatusOK},
		{"extra spaces collapse", "Bearer  coach-session-token", http.StatusOK},
		{"no scheme", "coach-session-token", http.StatusUnauthorized},
		{"scheme only", "Bearer", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"wrong scheme", "Basic coach-session-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := wrap(validator, &called, nil)

			req := httptest.NewRequest(http.MethodGet, "/users/"+userID.String()+"/analyses", nil)
			req.Header.Set("Authorization", tt.authHeader)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"unknown token", "some-other-session"},
		{"malformed jwt", "not.a.valid.jwt.token"},
		{"tampered signature", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJ1c2VyX2lkIjoiMTIzIn0.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := wrap(newStubValidator(), &called, nil)

			req := httptest.NewRequest(http.MethodGet, "/analyses/"+uuid.NewString(), nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called, "handler should not run for a rejected token")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "Unauthorized")
		})
	}
}

func TestGetUserID_Success(t *testing.T) {
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/analyses/"+uuid.NewString(), nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, userID))

	got, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestGetUserID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/analyses/"+uuid.NewString(), nil)

	got, err := GetUserID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, got)
	assert.Contains(t, err.Error(), "user ID not found")
}

func TestGetUserID_WrongType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/analyses/"+uuid.NewString(), nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, "not-a-uuid"))

	got, err := GetUserID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, got)
}
