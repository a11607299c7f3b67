// Package middleware provides logging, session, rate limiting and tracing middleware for the application.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "yatube"
	tokenAudience = "yatube-web"

	// LoginPath is where unauthenticated visitors are sent.
	LoginPath = "/auth/login/"
)

// ErrInvalidSession is returned for tokens that fail signature, claim or revocation checks.
var ErrInvalidSession = errors.New("invalid or expired session")

// Session is the identity resolved from a session token.
type Session struct {
	UserID    uint
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// SessionManager issues and verifies signed session tokens stored in a cookie.
type SessionManager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	rdb        *redis.Client
}

// NewSessionManager creates a session manager. rdb may be nil, in which case
// logout cannot revoke tokens early and only clears the cookie.
func NewSessionManager(secret, cookieName string, ttl time.Duration, secure bool, rdb *redis.Client) *SessionManager {
	if cookieName == "" {
		cookieName = "yatube_session"
	}
	return &SessionManager{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		rdb:        rdb,
	}
}

// Issue signs a new session token for the user.
func (m *SessionManager) Issue(userID uint, username string) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(m.ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a token string and returns the session it encodes.
func (m *SessionManager) Parse(ctx context.Context, tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidSession
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidSession
	}

	session := &Session{UserID: uint(userID)}
	session.Username, _ = claims["username"].(string)
	session.TokenID, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}

	if session.TokenID != "" && m.rdb != nil {
		revoked, err := m.rdb.Exists(ctx, revokedKey(session.TokenID)).Result()
		if err == nil && revoked > 0 {
			return nil, ErrInvalidSession
		}
	}

	return session, nil
}

// Revoke blacklists the token until its natural expiry.
func (m *SessionManager) Revoke(ctx context.Context, s *Session) error {
	if m.rdb == nil || s == nil || s.TokenID == "" {
		return nil
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return m.rdb.Set(ctx, revokedKey(s.TokenID), "1", ttl).Err()
}

func revokedKey(jti string) string {
	return "blacklist:" + jti
}

// SetCookie writes the session cookie.
func (m *SessionManager) SetCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.ttl),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (m *SessionManager) tokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Cookies(m.cookieName)
}

// LoadSession resolves the acting user from the session cookie (or a Bearer
// token) and stores it in locals. Anonymous requests pass through untouched.
func (m *SessionManager) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := m.tokenFromRequest(c)
		if tokenString == "" {
			return c.Next()
		}

		session, err := m.Parse(c.UserContext(), tokenString)
		if err != nil {
			if c.Cookies(m.cookieName) != "" {
				m.ClearCookie(c)
			}
			return c.Next()
		}

		c.Locals("userID", session.UserID)
		c.Locals("username", session.Username)
		c.Locals("session", session)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, session.UserID))
		return c.Next()
	}
}

// CurrentSession returns the session stored by LoadSession, or nil.
func CurrentSession(c *fiber.Ctx) *Session {
	s, _ := c.Locals("session").(*Session)
	return s
}

// CurrentUserID returns the authenticated user ID, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}

// LoginRequired redirects anonymous visitors to the login page, carrying the
// original URL in the next parameter.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUserID(c); ok {
			return c.Next()
		}
		return c.Redirect(LoginRedirectURL(c.OriginalURL()), fiber.StatusFound)
	}
}

// LoginRedirectURL builds the login URL for the given return path.
func LoginRedirectURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext returns next when it is a local absolute path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}
