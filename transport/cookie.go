package transport

import (
	"net/http"
	"time"
)

// CookieConfig controls how the session token cookie is written.
type CookieConfig struct {
	// Name of the cookie. Default "sessauth_token".
	Name string

	// Lifetime of minted token rows and of the cookie itself. Zero means a
	// browser-session cookie and never-expiring token rows.
	Lifetime time.Duration

	Path     string // default "/"
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieConfig returns a host-only, Lax, session-scoped cookie
// configuration.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     "sessauth_token",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// Cookie carries the token in an HTTP cookie. One instance per request.
// The cookie is always HttpOnly: the token is a bearer secret and has no
// business being readable from scripts.
type Cookie struct {
	config CookieConfig
	w      http.ResponseWriter
	r      *http.Request
}

// NewCookie creates a cookie transport for one request/response pair.
// Zero-value fields of cfg fall back to [DefaultCookieConfig].
func NewCookie(cfg CookieConfig, w http.ResponseWriter, r *http.Request) *Cookie {
	if cfg.Name == "" {
		cfg.Name = "sessauth_token"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}

	return &Cookie{config: cfg, w: w, r: r}
}

// Token returns the token presented in the request cookie, if any.
func (c *Cookie) Token() (string, bool) {
	cookie, err := c.r.Cookie(c.config.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SetToken writes the token back as a Set-Cookie header.
func (c *Cookie) SetToken(token string) {
	http.SetCookie(c.w, c.cookie(token, int(c.config.Lifetime/time.Second)))
}

// DeleteToken expires the cookie on the client.
func (c *Cookie) DeleteToken() {
	http.SetCookie(c.w, c.cookie("", -1))
}

// TokenLifetime reports the configured lifetime for minted token rows.
func (c *Cookie) TokenLifetime() time.Duration {
	return c.config.Lifetime
}

func (c *Cookie) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.config.Name,
		Value:    value,
		Path:     c.config.Path,
		Domain:   c.config.Domain,
		MaxAge:   maxAge,
		Secure:   c.config.Secure,
		HttpOnly: true,
		SameSite: c.config.SameSite,
	}
}
