package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"certgate/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

func serve(v JWTValidator, header string) (*httptest.ResponseRecorder, string, bool) {
	var actor string
	var called bool
	h := RequireAuth(v, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			actor = requestcontext.Actor(r.Context())
		}))
	req := httptest.NewRequest(http.MethodPost, "/v1/issuance", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, actor, called
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token sets actor", func(t *testing.T) {
		rr, actor, called := serve(stubValidator{claims: &JWTClaims{Subject: "alice", JTI: "j1"}}, "Bearer good")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
		assert.Equal(t, "alice", actor)
	})

	t.Run("missing header", func(t *testing.T) {
		rr, _, called := serve(stubValidator{}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`, rr.Body.String())
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rr, _, called := serve(stubValidator{}, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("rejected token", func(t *testing.T) {
		rr, _, called := serve(stubValidator{err: errors.New("bad signature")}, "Bearer bad")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Invalid or expired token"}`, rr.Body.String())
	})
}
