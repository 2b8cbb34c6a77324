package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DeviceLookup resolves the id of the device this state belongs to.
type DeviceLookup interface {
	DeviceID(ctx context.Context) (string, error)
}

type TokenService struct {
	secretKey        []byte
	issuer           string
	tokenDuration    time.Duration
	rememberDuration time.Duration
	devices          DeviceLookup
}

func NewTokenService(secretKey string, issuer string, tokenDuration, rememberDuration time.Duration, devices DeviceLookup) *TokenService {
	return &TokenService{
		secretKey:        []byte(secretKey),
		issuer:           issuer,
		tokenDuration:    tokenDuration,
		rememberDuration: rememberDuration,
		devices:          devices,
	}
}

// GenerateToken issues a session token for deviceID. remember selects the
// longer "remember this device" lifetime.
func (s *TokenService) GenerateToken(deviceID string, remember bool) (string, error) {
	duration := s.tokenDuration
	if remember && s.rememberDuration > 0 {
		duration = s.rememberDuration
	}

	claims := jwt.MapClaims{
		"sub": deviceID,
		"exp": time.Now().Add(duration).Unix(),
		"iat": time.Now().Unix(),
		"iss": s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("token service: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken returns the device id of a valid session. Tokens minted for
// another device id (for example before a local wipe) are rejected.
func (s *TokenService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	if iss, ok := claims["iss"].(string); !ok || iss != s.issuer {
		return "", fmt.Errorf("invalid token issuer")
	}

	deviceID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("invalid token subject")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	current, err := s.devices.DeviceID(ctx)
	if err != nil {
		return "", fmt.Errorf("device lookup failed: %w", err)
	}
	if current != deviceID {
		return "", fmt.Errorf("token was issued for another device")
	}

	return deviceID, nil
}
