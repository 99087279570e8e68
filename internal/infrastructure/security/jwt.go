// Package security provides JWT token utilities
package security

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// BlogAudience marks tokens issued to the blog CMS.
const BlogAudience = "blog"

var ErrInvalidToken = errors.New("invalid token")

// AdminClaims are carried by dashboard tokens.
type AdminClaims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// BlogClaims are carried by blog CMS tokens.
type BlogClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs a dashboard token for the admin.
func GenerateAdminToken(id, role, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := AdminClaims{
		ID:   id,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return sign(claims, jwtSecret)
}

// ValidateAdminToken verifies a dashboard token. Blog tokens are rejected.
func ValidateAdminToken(tokenString, jwtSecret string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := parse(tokenString, jwtSecret, claims); err != nil {
		return nil, err
	}
	if slices.Contains(claims.Audience, BlogAudience) {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateBlogToken signs a blog CMS token.
func GenerateBlogToken(id, username, role, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := BlogClaims{
		ID:       id,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{BlogAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return sign(claims, jwtSecret)
}

// ValidateBlogToken verifies a blog token. Dashboard tokens are rejected.
func ValidateBlogToken(tokenString, jwtSecret string) (*BlogClaims, error) {
	claims := &BlogClaims{}
	if err := parse(tokenString, jwtSecret, claims); err != nil {
		return nil, err
	}
	if !claims.VerifyAudience(BlogAudience, true) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func sign(claims jwt.Claims, jwtSecret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func parse(tokenString, jwtSecret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
