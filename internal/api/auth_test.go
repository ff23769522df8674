package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func captureCaller(t *testing.T, got *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := CallerFrom(r.Context())
		require.True(t, ok, "caller in context")
		*got = c
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireCaller_ValidToken(t *testing.T) {
	token, err := SignToken(testSecret, "oracle.near", time.Hour)
	require.NoError(t, err)

	var caller string
	h := RequireCaller(NewTokenValidator(testSecret))(captureCaller(t, &caller))

	req := httptest.NewRequest(http.MethodPut, "/prophecies/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "oracle.near", caller)
}

func TestRequireCaller_Rejections(t *testing.T) {
	valid, err := SignToken(testSecret, "oracle.near", time.Hour)
	require.NoError(t, err)
	expired, err := SignToken(testSecret, "oracle.near", -time.Hour)
	require.NoError(t, err)
	wrongKey, err := SignToken("other-secret", "oracle.near", time.Hour)
	require.NoError(t, err)
	noSubject, err := SignToken(testSecret, "", time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "oracle.near"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name      string
		header    string
		validator *TokenValidator
	}{
		{"missing header", "", NewTokenValidator(testSecret)},
		{"wrong scheme", "Basic " + valid, NewTokenValidator(testSecret)},
		{"no validator", "Bearer " + valid, nil},
		{"expired", "Bearer " + expired, NewTokenValidator(testSecret)},
		{"wrong key", "Bearer " + wrongKey, NewTokenValidator(testSecret)},
		{"empty subject", "Bearer " + noSubject, NewTokenValidator(testSecret)},
		{"alg none", "Bearer " + none, NewTokenValidator(testSecret)},
		{"garbage", "Bearer not.a.jwt", NewTokenValidator(testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireCaller(tt.validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodPut, "/prophecies/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		})
	}
}

func TestNewTokenValidator_EmptySecret(t *testing.T) {
	assert.Nil(t, NewTokenValidator(""))

	_, err := SignToken("", "oracle.near", time.Hour)
	assert.Error(t, err)
}
