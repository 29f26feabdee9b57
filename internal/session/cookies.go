// File: internal/session/cookies.go
package session

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"minitorque_web/internal/config"
	"minitorque_web/internal/platform/crypto"

	"github.com/gin-gonic/gin"
)

const sessionIDBytes = 32

var sessionIDLen = base64.RawURLEncoding.EncodedLen(sessionIDBytes)

// Cookies reads and writes the two browser cookies: the session id naming the slot and
// the provider's session token.
type Cookies struct {
	idName    string
	tokenName string
	maxAge    int
	domain    string
	secure    bool
	sameSite  http.SameSite
}

// NewCookies builds the cookie settings from configuration.
func NewCookies(cfg *config.Config) *Cookies {
	return &Cookies{
		idName:    cfg.SessionIDCookieName,
		tokenName: cfg.SessionCookieName,
		maxAge:    int(cfg.SessionTTL.Seconds()),
		domain:    cfg.SessionCookieDomain,
		secure:    cfg.SessionCookieSecure,
		sameSite:  parseSameSite(cfg.SessionCookieSameSite),
	}
}

// SessionID returns the session id cookie, if any.
func (k *Cookies) SessionID(c *gin.Context) string {
	return k.read(c, k.idName)
}

// Token returns the session token cookie, if any.
func (k *Cookies) Token(c *gin.Context) string {
	return k.read(c, k.tokenName)
}

// EnsureSessionID returns the existing session id or issues a new one. A malformed id
// is replaced.
func (k *Cookies) EnsureSessionID(c *gin.Context) (string, error) {
	if sid := k.SessionID(c); ValidSessionID(sid) {
		return sid, nil
	}
	sid, _, err := k.RotateSessionID(c)
	return sid, err
}

// RotateSessionID issues a fresh session id cookie. previous is the well-formed id the
// request carried, empty if it had none.
func (k *Cookies) RotateSessionID(c *gin.Context) (sid, previous string, err error) {
	sid, err = NewSessionID()
	if err != nil {
		return "", "", err
	}
	if p := k.SessionID(c); ValidSessionID(p) {
		previous = p
	}
	k.set(c, k.idName, sid, k.maxAge)
	return sid, previous, nil
}

// SetToken stores the provider's session token.
func (k *Cookies) SetToken(c *gin.Context, token string) {
	k.set(c, k.tokenName, token, k.maxAge)
}

// ClearToken removes the session token cookie.
func (k *Cookies) ClearToken(c *gin.Context) {
	k.set(c, k.tokenName, "", -1)
}

// NewSessionID returns a random, URL-safe session id.
func NewSessionID() (string, error) {
	sid, err := crypto.GenerateSecureRandomString(sessionIDBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return sid, nil
}

// ValidSessionID reports whether sid has the length and alphabet of NewSessionID output.
func ValidSessionID(sid string) bool {
	if len(sid) != sessionIDLen {
		return false
	}
	for _, r := range sid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func (k *Cookies) read(c *gin.Context, name string) string {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (k *Cookies) set(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Domain:   k.domain,
		Secure:   k.secure,
		HttpOnly: true,
		SameSite: k.sameSite,
	})
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
