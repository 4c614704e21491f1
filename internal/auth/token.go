package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/obralink/portal-pagos/pkg/utils"
)

var (
	// ErrInvalidToken is returned when a token cannot be resolved to an actor
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims are the JWT claims carried by a portal access token
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Rut   string `json:"rut,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenResolver issues and resolves portal access tokens
type TokenResolver struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenResolver creates a resolver with the given HMAC secret and token lifetime
func NewTokenResolver(secret []byte, ttl time.Duration) *TokenResolver {
	return &TokenResolver{secret: secret, ttl: ttl}
}

// Issue signs a token for the given actor
func (r *TokenResolver) Issue(actor Actor) (string, error) {
	if _, ok := ParseRole(string(actor.Role)); !ok {
		return "", fmt.Errorf("%w: role %q", ErrInvalidToken, actor.Role)
	}
	if actor.Rut != "" {
		if err := utils.ValidateRUT(actor.Rut); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	now := time.Now()
	claims := Claims{
		Email: actor.Email,
		Name:  actor.Name,
		Rut:   actor.Rut,
		Role:  string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// Resolve validates a token string and returns the actor it names
func (r *TokenResolver) Resolve(tokenString string) (*Actor, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method", ErrInvalidToken)
		}
		return r.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidToken)
	}

	role, ok := ParseRole(claims.Role)
	if !ok {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}
	if claims.Rut != "" {
		if err := utils.ValidateRUT(claims.Rut); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	return &Actor{Email: claims.Email, Name: claims.Name, Rut: claims.Rut, Role: role}, nil
}
