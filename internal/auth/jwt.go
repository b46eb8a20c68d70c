// Admin token signing and validation. The Signer is constructed explicitly
// from configuration and passed to whoever needs it; there is no package
// level signing state.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNonValidToken    = errors.New("token did not pass validation")
	ErrInvalidClaimType = errors.New("invalid claim type")
	ErrNotAdmin         = errors.New("token does not carry the admin role")
)

var tokenSignatureAlg = jwt.SigningMethodHS256

const AdminRole = "admin"

// Claim for admin panel access tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner builds a signing context. ttlDays is the fixed validity window
// set at issuance; tokens are not renewed on use.
func NewSigner(secret string, ttlDays uint) *Signer {
	return &Signer{
		secret: []byte(secret),
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
	}
}

// TTL returns the token validity window.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// GenerateAdminToken issues a signed admin token.
func (s *Signer) GenerateAdminToken() (string, error) {
	now := time.Now().UTC()
	claims := &AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(tokenSignatureAlg, claims)
	return token.SignedString(s.secret)
}

// VerifyAdminToken validates signature, expiry, and the admin role.
func (s *Signer) VerifyAdminToken(tokenString string) (*AdminClaims, error) {
	claims, err := decodeJWT(s, tokenString, &AdminClaims{})
	if err != nil {
		return nil, err
	}
	if claims.Role != AdminRole {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

func decodeJWT[T jwt.Claims](s *Signer, tokenString string, claimsType T) (T, error) {
	var zero T

	parsedToken, err := jwt.ParseWithClaims(tokenString, claimsType, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}))

	if err != nil {
		return zero, err
	} else if parsedToken == nil || !parsedToken.Valid {
		return zero, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(T); ok {
		return claims, nil
	}

	return zero, ErrInvalidClaimType
}
