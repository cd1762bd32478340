package security

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"construct-authz/core/internal/role"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// AccessClaims holds JWT claims for the access token. Role is the account's
// normalized role as synced by the claim synchronizer: request-path checks
// read it from here instead of querying the accounts table.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// TokenProvider issues and validates RS256 JWT access tokens.
type TokenProvider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given RSA key
// pair. issuer and audience are set on claims and validated on parse.
func NewTokenProvider(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer, audience string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
	}
}

// IssueAccess issues a short-lived access JWT carrying the account's current
// role and active flag. Returns the token string, its jti, and expiration.
// The role must come from the claim store at issue time, never from a live
// accounts-table read inside an authorization path.
func (p *TokenProvider) IssueAccess(accountID string, r role.Role, active bool) (token string, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:   string(r),
		Active: active,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.privateKey)
	return token, jti, expiresAt, err
}

// ValidateAccess parses and validates the access token (signature, exp, iss,
// aud). Returns accountID, role, active, or error. An unknown role string in
// a valid token is returned as-is; the role resolver maps it to the empty
// capability set downstream.
func (p *TokenProvider) ValidateAccess(tokenString string) (accountID string, r role.Role, active bool, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return p.publicKey, nil
	})
	if err != nil {
		return "", "", false, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return "", "", false, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return "", "", false, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return "", "", false, ErrInvalidToken
	}
	return claims.Subject, role.Role(claims.Role), claims.Active, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
