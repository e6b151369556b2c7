package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "admin-secret"

func token(t *testing.T, key, role string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops@example.com",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func run(t *testing.T, authHeader string) (int, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var subject string
	h := AdminAuth(secret)(func(c echo.Context) error {
		subject, _ = c.Get(ContextAdminKey).(string)
		return c.NoContent(http.StatusNoContent)
	})

	err := h(c)
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code, subject
	}
	require.NoError(t, err)
	return rec.Code, subject
}

func TestAdminAuth(t *testing.T) {
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid admin", "Bearer " + token(t, secret, AdminRole, future), http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer " + token(t, "other", AdminRole, future), http.StatusUnauthorized},
		{"expired", "Bearer " + token(t, secret, AdminRole, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"customer role", "Bearer " + token(t, secret, "customer", future), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, subject := run(t, tt.header)
			assert.Equal(t, tt.want, code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "ops@example.com", subject)
			}
		})
	}
}
