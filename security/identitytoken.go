package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleGuard      Role = "guard"
	RoleSupervisor Role = "supervisor"
)

const issuer = "guardpatrol"

type PatrolIdentity struct {
	ID   int32
	Rut  string
	Name string
	Role Role
}

type Identity struct {
	UserID     int32  `json:"nameid"`
	UniqueName string `json:"unique_name"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
}

// IdentityClaims includes Identity and standard JWT claims
type IdentityClaims struct {
	Identity
	jwt.RegisteredClaims
}

func DecodeSecret(base64Secret string) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode jwt secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	return secret, nil
}

func CreateIdentityToken(identity *PatrolIdentity, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		Identity: Identity{
			UserID:     identity.ID,
			UniqueName: identity.Rut,
			Name:       identity.Name,
			Role:       identity.Role,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%s:%d", identity.Role, identity.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseIdentityToken verifies signature, issuer and expiry.
func ParseIdentityToken(tokenStr string, secret []byte) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
