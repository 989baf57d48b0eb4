package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTicketRoundTrip(t *testing.T) {
	InitJWT("test-secret")
	defer InitJWT("")

	tok, err := GenerateTicket("alice", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	sub, err := ParseTicket(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("sub = %q", sub)
	}
}

func TestTicketRejected(t *testing.T) {
	InitJWT("test-secret")
	defer InitJWT("")

	expired, err := GenerateTicket("bob", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	InitJWT("other-secret")
	foreign, _ := GenerateTicket("mallory", time.Hour)
	InitJWT("test-secret")

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "eve"}).SignedString([]byte("test-secret"))

	cases := map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"missing exp":  noExp,
		"garbage":      "not.a.token",
		"empty":        "",
	}
	for name, tok := range cases {
		if _, err := ParseTicket(tok); !errors.Is(err, ErrInvalidTicket) {
			t.Fatalf("%s: err = %v, want ErrInvalidTicket", name, err)
		}
	}
}

func TestTicketsDisabled(t *testing.T) {
	InitJWT("")
	if TicketsEnabled() {
		t.Fatalf("enabled without secret")
	}
	if _, err := GenerateTicket("x", time.Hour); !errors.Is(err, ErrTicketsDisabled) {
		t.Fatalf("generate err = %v", err)
	}
	if _, err := ParseTicket("x"); !errors.Is(err, ErrTicketsDisabled) {
		t.Fatalf("parse err = %v", err)
	}
}
