package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims(role string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:       "pastor@igreja.org",
		Role:        "authenticated",
		AppMetadata: map[string]any{"role": role},
	}
}

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier(testSecret)

	claims, err := v.Verify(signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("admin")))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.AppRole())

	_, err = v.Verify(signToken(t, "other-secret", jwt.SigningMethodHS256, validClaims("admin")))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(signToken(t, testSecret, jwt.SigningMethodHS512, validClaims("admin")))
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := validClaims("admin")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = v.Verify(signToken(t, testSecret, jwt.SigningMethodHS256, expired))
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := validClaims("admin")
	noExp.ExpiresAt = nil
	_, err = v.Verify(signToken(t, testSecret, jwt.SigningMethodHS256, noExp))
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := validClaims("admin")
	noSub.Subject = ""
	_, err = v.Verify(signToken(t, testSecret, jwt.SigningMethodHS256, noSub))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireRole(t *testing.T) {
	v := NewVerifier(testSecret)
	var seen *Claims
	h := RequireRole(v, []string{"Admin", "lider"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("voluntario")), http.StatusForbidden},
		{"admin", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("admin")), http.StatusNoContent},
		{"leader", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("LIDER")), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.Subject)
}

func TestRequireSecret(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	h := RequireSecret("cron-secret")(ok)
	for header, want := range map[string]int{
		"":                   http.StatusUnauthorized,
		"Bearer nope":        http.StatusUnauthorized,
		"cron-secret":        http.StatusUnauthorized,
		"Bearer cron-secret": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "header %q", header)
	}

	empty := RequireSecret("")(ok)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	empty.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
