package transport

import (
	"net/http"
	"strings"
	"time"
)

// TokenHeader is the response header carrying the (possibly rotated) token
// back to non-browser clients.
const TokenHeader = "X-Session-Token"

// Header reads the token from the Authorization header ("Bearer <token>")
// and writes rotations back through the X-Session-Token response header.
// Clients own the storage; an empty X-Session-Token value tells them to
// discard the token.
type Header struct {
	w        http.ResponseWriter
	r        *http.Request
	lifetime time.Duration
}

// NewHeader creates a bearer-header transport for one request/response
// pair. lifetime applies to minted token rows; zero means never-expiring.
func NewHeader(w http.ResponseWriter, r *http.Request, lifetime time.Duration) *Header {
	return &Header{w: w, r: r, lifetime: lifetime}
}

// Token extracts the bearer token from the Authorization header.
func (h *Header) Token() (string, bool) {
	return bearerToken(h.r.Header.Get("Authorization"))
}

// SetToken exposes the token in the response headers.
func (h *Header) SetToken(token string) {
	h.w.Header().Set(TokenHeader, token)
}

// DeleteToken signals the client to discard its token.
func (h *Header) DeleteToken() {
	h.w.Header().Set(TokenHeader, "")
}

// TokenLifetime reports the configured lifetime for minted token rows.
func (h *Header) TokenLifetime() time.Duration {
	return h.lifetime
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
