// Package cookie provides the cart session cookie helpers. Each
// establishment's storefront lives under its own path, so cookies are scoped
// to that path and one browser can hold carts at several establishments.
package cookie

import (
	"net/http"
	"time"
)

// CartCookieName stores the anonymous cart ID.
const CartCookieName = "cart_session"

// Config holds cookie configuration.
type Config struct {
	// Domain optionally scopes cookies to a host. Empty means host-only.
	Domain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool

	// MaxAge is how long a cart cookie lives.
	MaxAge time.Duration
}

// NewConfig creates a new cookie configuration.
//
// Example:
//
//	cfg := cookie.NewConfig("", true, 24*time.Hour)  // production
//	cfg := cookie.NewConfig("", false, 24*time.Hour) // development
func NewConfig(domain string, secure bool, maxAge time.Duration) *Config {
	return &Config{
		Domain: domain,
		Secure: secure,
		MaxAge: maxAge,
	}
}

// SetSession sets a session cookie scoped to path.
//
// The cookie is HttpOnly and SameSite=Lax; Secure follows the config.
func (c *Config) SetSession(w http.ResponseWriter, name, value, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     path,
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession removes a session cookie by setting MaxAge to -1.
// Domain and path must match the original cookie's.
func (c *Config) ClearSession(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Domain:   c.Domain,
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
