package service

import (
	"fmt"
	"time"

	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTokenService implements ports.TokenService using HS256 JWT.
// Tokens carry a fixed expiry; revocation can be layered on later by
// wrapping this service with a blacklist-checking decorator.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Generate creates a signed JWT scoped to (identity, role).
func (s *JWTTokenService) Generate(identity *domain.Identity) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	wallet := ""
	if identity.WalletAddress != nil {
		wallet = *identity.WalletAddress
	}

	claims := jwt.MapClaims{
		"sub":            identity.ID.String(),
		"email":          identity.Email,
		"role":           string(identity.Role),
		"wallet_address": wallet,
		"iat":            now.Unix(),
		"exp":            expiresAt.Unix(),
		"iss":            s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate parses and validates a JWT token, returning the claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("missing subject claim")
	}

	identityID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid identity ID in token: %w", err)
	}

	role, _ := claims["role"].(string)
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("invalid role in token: %q", role)
	}

	email, _ := claims["email"].(string)
	wallet, _ := claims["wallet_address"].(string)

	return &ports.TokenClaims{
		IdentityID:    identityID,
		Email:         email,
		Role:          domain.Role(role),
		WalletAddress: wallet,
	}, nil
}
