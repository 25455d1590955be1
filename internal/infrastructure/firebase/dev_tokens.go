package firebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const devTokenIssuer = "foodshare-dev"

// DevTokenManager issues HS256 tokens for local runs where no Firebase
// project is configured. It verifies the same tokens, so it can stand in
// for FirebaseAuthClient.
type DevTokenManager struct {
	secretKey []byte
	duration  time.Duration
}

type DevClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func NewDevTokenManager(secretKey string, duration time.Duration) *DevTokenManager {
	return &DevTokenManager{
		secretKey: []byte(secretKey),
		duration:  duration,
	}
}

func (m *DevTokenManager) GenerateToken(uid, role string) (string, time.Time, error) {
	if uid == "" {
		return "", time.Time{}, errors.New("uid is required")
	}

	now := time.Now()
	expiresAt := now.Add(m.duration)
	claims := &DevClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    devTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *DevTokenManager) VerifyToken(ctx context.Context, tokenString string) (string, error) {
	claims := &DevClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(devTokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}
