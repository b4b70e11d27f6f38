package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName carries the signed session identifier.
	CookieName = "sentinel_session"
	// SessionKey is the gin context key holding the resolved session ID.
	SessionKey = "session_id"

	tokenExpiry  = 24 * time.Hour
	envSecret    = "SENTINEL_SESSION_SECRET"
	fallbackNote = "generated ephemeral session secret; set " + envSecret + " to keep sessions across restarts"
)

// SessionClaims binds a session ID into a signed token.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionService issues and validates the signed session cookie that keys
// per-session state. Sessions are anonymous: the token carries only a random
// identifier, no user identity.
type SessionService struct {
	secret []byte
	notify func(string)
}

// NewSessionService reads the signing secret from the environment, generating
// an ephemeral one when unset (sessions then reset on restart).
func NewSessionService(notify func(string)) *SessionService {
	secret := []byte(os.Getenv(envSecret))
	if len(secret) == 0 {
		secret = randomBytes(32)
		if notify != nil {
			notify(fallbackNote)
		}
	}
	return &SessionService{secret: secret, notify: notify}
}

// GenerateToken mints a signed token for a fresh session ID.
func (s *SessionService) GenerateToken() (string, string, error) {
	sessionID := hex.EncodeToString(randomBytes(16))
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   sessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return sessionID, signed, nil
}

// ValidateToken returns the session ID carried by a signed token.
func (s *SessionService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.SessionID, nil
}

// EnsureSession resolves the caller's session ID from the cookie, minting a
// fresh session (and cookie) when absent or invalid. Every request behind
// this middleware can read SessionKey from the context.
func (s *SessionService) EnsureSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(CookieName); err == nil && token != "" {
			if sessionID, verr := s.ValidateToken(token); verr == nil {
				c.Set(SessionKey, sessionID)
				c.Next()
				return
			}
		}

		sessionID, signed, err := s.GenerateToken()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to establish session"})
			return
		}
		setSessionCookie(c, signed)
		c.Set(SessionKey, sessionID)
		c.Next()
	}
}

// SessionID extracts the resolved session ID from the request context.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(SessionKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(c),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(tokenExpiry.Seconds()),
	})
}

func requestIsSecure(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}

func randomBytes(n int) []byte {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken; there is no
		// reasonable degraded mode for session identity.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return buf
}
