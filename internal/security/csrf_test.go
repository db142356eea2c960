package security

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestCSRFMiddlewareBlocksMissingToken(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodPost, "/ingredients", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "abc"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareAllowsHeaderToken(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodPost, "/ingredients", nil)
	token := "secure-token"
	req.Header.Set("X-CSRF-Token", token)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareAllowsFormField(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusSeeOther))

	form := url.Values{"csrf_token": {"form-token"}, "name": {"Kale"}}
	req := httptest.NewRequest(http.MethodPost, "/ingredients", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "form-token"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareRejectsMismatch(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodPost, "/ingredients", nil)
	req.Header.Set("X-CSRF-Token", "one")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "two"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareIssuesTokenOnSafeRequest(t *testing.T) {
	var seen string
	handler := CSRF{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CSRFToken(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "csrf_token" {
		t.Fatalf("expected csrf cookie, got %v", cookies)
	}
	if seen == "" || seen != cookies[0].Value {
		t.Fatalf("expected context token %q to match cookie %q", seen, cookies[0].Value)
	}
}

func TestCSRFMiddlewareDisabled(t *testing.T) {
	handler := CSRF{Disabled: true}.Middleware(okHandler(http.StatusAccepted))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ingredients", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 when disabled, got %d", rr.Code)
	}
}
