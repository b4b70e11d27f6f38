package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := NewSessionService(nil)

	sessionID, token, err := svc.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if sessionID == "" || token == "" {
		t.Fatalf("generate returned empty values")
	}

	got, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if got != sessionID {
		t.Fatalf("validated session = %q, want %q", got, sessionID)
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	issuer := NewSessionService(nil)
	verifier := NewSessionService(nil) // distinct ephemeral secret

	_, token, err := issuer.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatalf("token signed with a different secret must be rejected")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewSessionService(nil)
	if _, err := svc.ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("malformed token must be rejected")
	}
}

func TestEnsureSessionMintsCookieAndContextID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewSessionService(nil)

	var seen string
	r := gin.New()
	r.Use(svc.EnsureSession())
	r.GET("/", func(c *gin.Context) {
		seen = SessionID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatalf("handler must see a resolved session ID")
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("cookies = %v, want one %s cookie", cookies, CookieName)
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}

	// A second request carrying the cookie resolves to the same session and
	// does not mint a replacement.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	first := seen
	r.ServeHTTP(w2, req)

	if seen != first {
		t.Fatalf("session ID changed across requests: %q then %q", first, seen)
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Fatalf("valid cookie must not be reissued")
	}
}

func TestEnsureSessionReplacesInvalidCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewSessionService(nil)

	r := gin.New()
	r.Use(svc.EnsureSession())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tampered"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "tampered" {
		t.Fatalf("invalid cookie must be replaced, got %v", cookies)
	}
}
