package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

var (
	ErrTicketsDisabled = errors.New("ticket auth is not configured")
	ErrInvalidTicket   = errors.New("invalid ticket")
)

// InitJWT sets the HMAC secret for connection tickets. An empty secret
// disables ticket auth.
func InitJWT(secret string) {
	if secret == "" {
		jwtSecret = nil
		return
	}
	jwtSecret = []byte(secret)
}

// TicketsEnabled reports whether /ws requires a ticket.
func TicketsEnabled() bool {
	return len(jwtSecret) > 0
}

// GenerateTicket signs a ticket for subject valid for ttl.
func GenerateTicket(subject string, ttl time.Duration) (string, error) {
	if !TicketsEnabled() {
		return "", ErrTicketsDisabled
	}
	if subject == "" {
		return "", errors.New("subject required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseTicket validates a ticket and returns its subject.
func ParseTicket(tokenString string) (string, error) {
	if !TicketsEnabled() {
		return "", ErrTicketsDisabled
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidTicket
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidTicket
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidTicket
	}
	return sub, nil
}
