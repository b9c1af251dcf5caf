package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("jwt secret is not configured")
)

// Claims - данные внутри токена. Subject хранит ID пользователя.
type Claims struct {
	UserID string `json:"-"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var (
	mu       sync.RWMutex
	secret   []byte
	tokenTTL = 24 * time.Hour
)

// Configure задаётся один раз при старте из config.JWT.
func Configure(jwtSecret string, ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	secret = []byte(jwtSecret)
	if ttl > 0 {
		tokenTTL = ttl
	}
}

func settings() ([]byte, time.Duration) {
	mu.RLock()
	defer mu.RUnlock()
	return secret, tokenTTL
}

// GenerateToken подписывает HS256 токен для пользователя.
func GenerateToken(userID, role string) (string, time.Time, error) {
	key, ttl := settings()
	if len(key) == 0 {
		return "", time.Time{}, ErrNoSecret
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken проверяет подпись и срок действия.
func ParseToken(tokenString string) (*Claims, error) {
	key, _ := settings()
	if len(key) == 0 {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	claims.UserID = claims.Subject
	return claims, nil
}
