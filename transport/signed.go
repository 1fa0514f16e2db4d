package transport

import (
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sessauth/sessauth"
)

// Signed wraps another transport in an HS256 JWT envelope. The opaque
// session token travels as the subject claim of a signed envelope, so a
// token that was tampered with client-side is rejected here, before the
// session cache or token store is ever consulted.
//
// A tampered or expired envelope degrades to "no token": the engine then
// resolves to StatusNoToken and resets, which matches the fail-open-to-
// anonymous policy of the rest of the stack.
type Signed struct {
	inner  sessauth.Transport
	secret []byte
	clock  func() time.Time
}

// NewSigned wraps inner with an HMAC envelope keyed by secret.
func NewSigned(inner sessauth.Transport, secret []byte) *Signed {
	return &Signed{inner: inner, secret: secret, clock: time.Now}
}

// Token unwraps and verifies the envelope carried by the inner transport.
func (s *Signed) Token() (string, bool) {
	raw, ok := s.inner.Token()
	if !ok {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil || claims.Subject == "" {
		return "", false
	}

	return claims.Subject, true
}

// SetToken signs the token into an envelope and hands it to the inner
// transport. The envelope expiry mirrors the token row lifetime.
func (s *Signed) SetToken(token string) {
	now := s.clock()

	claims := jwt.RegisteredClaims{
		Subject:  token,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if lifetime := s.inner.TokenLifetime(); lifetime > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(lifetime))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		log.Print("sessauth: token envelope signing failed")
		s.inner.DeleteToken()
		return
	}

	s.inner.SetToken(signed)
}

// DeleteToken forwards to the inner transport.
func (s *Signed) DeleteToken() {
	s.inner.DeleteToken()
}

// TokenLifetime forwards to the inner transport.
func (s *Signed) TokenLifetime() time.Duration {
	return s.inner.TokenLifetime()
}

func (s *Signed) keyFunc(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}
