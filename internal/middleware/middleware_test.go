package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"meditrip-api/internal/auth"
	"meditrip-api/internal/model"
)

const secret = "test-secret"

func handlerApp(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	}, mw...)
	return e
}

func get(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	e := handlerApp(Auth(secret))

	if rec := get(e, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", rec.Code)
	}
	if rec := get(e, "garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: got %d, want 401", rec.Code)
	}

	tok, err := auth.MakeToken("user-1", model.RolePatient, secret)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if rec := get(e, tok); rec.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want 200", rec.Code)
	}

	// token signed with a different secret is rejected
	other, _ := auth.MakeToken("user-1", model.RolePatient, "other-secret")
	if rec := get(e, other); rec.Code != http.StatusUnauthorized {
		t.Errorf("foreign token: got %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := handlerApp(Auth(secret), RequireRole(model.RoleDoctor))

	patientTok, _ := auth.MakeToken("user-1", model.RolePatient, secret)
	if rec := get(e, patientTok); rec.Code != http.StatusForbidden {
		t.Errorf("patient on doctor route: got %d, want 403", rec.Code)
	}

	doctorTok, _ := auth.MakeToken("user-2", model.RoleDoctor, secret)
	if rec := get(e, doctorTok); rec.Code != http.StatusOK {
		t.Errorf("doctor: got %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	e := handlerApp(RateLimit(rl))

	var limited int
	for i := 0; i < 10; i++ {
		if rec := get(e, ""); rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Error("burst exhausted but nothing was limited")
	}
	if limited >= 10 {
		t.Error("everything limited, burst budget never applied")
	}
}
