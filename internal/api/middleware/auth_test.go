package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/authentiscan/identity-service/internal/core/auth"
)

func protectedContext(t *testing.T, mutate func(*http.Request)) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func TestSession_ValidCookieToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue("user_1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	_, c, rec := protectedContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	})

	called := false
	handler := Session(issuer)(func(c echo.Context) error {
		called = true
		if c.Get(ContextUserID) != "user_1" {
			t.Fatalf("subject not injected")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSession_ValidBearerToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue("user_1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	_, c, _ := protectedContext(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	handler := Session(issuer)(func(c echo.Context) error {
		if c.Get(ContextUserID) != "user_1" {
			t.Fatalf("subject not injected")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestSession_MissingToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	e, c, rec := protectedContext(t, nil)

	handler := Session(issuer)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSession_ExpiredToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "user_1",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	e, c, rec := protectedContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: expired})
	})

	handler := Session(issuer)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSession_GarbageToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	e, c, rec := protectedContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-token"})
	})

	handler := Session(issuer)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSession_WrongSignature(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	other := auth.NewTokenIssuer("other-secret", time.Hour)
	token, err := other.Issue("user_1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	e, c, rec := protectedContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	})

	handler := Session(issuer)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
