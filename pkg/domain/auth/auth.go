package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken error = errors.New("invalid token")

// Claims carried by loom tracker tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// Signer issues and verifies HMAC-SHA256 signed tokens for the tracker API.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner creates a Signer over the given secret.
//
// ttl is the lifetime of tokens issued by this Signer. Zero means tokens
// without expiry.
func NewSigner(secret []byte, ttl time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	return &Signer{secret: secret, ttl: ttl}, nil
}

// NewSecret generates a random secret of klen bytes.
func NewSecret(klen uint) ([]byte, error) {
	k := make([]byte, klen)
	if _, err := rand.Read(k); err != nil {
		return nil, err
	}
	return k, nil
}

// Issue signs a token naming subject.
//
// # Returns
//
// - string: JWS token string
//
// - error: from [jwt.Token.SignedString]
func (s *Signer) Issue(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if 0 < s.ttl {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verify parses and verifies a token issued by this Signer.
//
// # Returns
//
// - *Claims: claims of the token
//
// - error: [ErrInvalidToken] when the token is malformed, signed with
// another key or algorithm, or expired.
func (s *Signer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("%w: unexpected algorithm: %s", ErrInvalidToken, t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) ||
			errors.Is(err, jwt.ErrSignatureInvalid) ||
			errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Join(ErrInvalidToken, err)
		}
		return nil, err
	}

	if c, ok := tok.Claims.(*Claims); ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: unexpected claims type: %T", ErrInvalidToken, tok.Claims)
}
