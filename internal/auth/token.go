// Package auth issues and verifies the bearer tokens carried by storefront
// and admin requests.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Issue signs an HS256 token carrying userId, email and isAdmin.
func Issue(identity models.Identity, secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expires := now.Add(ttl)
	claims := jwt.MapClaims{
		"userId":  identity.UserID.Hex(),
		"email":   identity.Email,
		"isAdmin": identity.IsAdmin,
		"iat":     now.Unix(),
		"exp":     expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies the signature and expiry and returns the identity with
// the token's expiry time.
func Parse(raw, secret string) (models.Identity, time.Time, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return models.Identity{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, time.Time{}, fmt.Errorf("%w: claims", ErrInvalidToken)
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return models.Identity{}, time.Time{}, fmt.Errorf("%w: userId claim missing", ErrInvalidToken)
	}
	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return models.Identity{}, time.Time{}, fmt.Errorf("%w: userId claim malformed", ErrInvalidToken)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return models.Identity{}, time.Time{}, fmt.Errorf("%w: exp claim", ErrInvalidToken)
	}

	email, _ := claims["email"].(string)
	isAdmin, _ := claims["isAdmin"].(bool)
	return models.Identity{UserID: userID, Email: email, IsAdmin: isAdmin}, exp.Time, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return "", fmt.Errorf("%w: missing token", ErrInvalidToken)
	}
	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("%w: invalid token format", ErrInvalidToken)
	}
	return parts[1], nil
}
