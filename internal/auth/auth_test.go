package auth

import (
	"context"
	"errors"
	"testing"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]string{"secret-a": "alice", "secret-b": "bob"})

	user, err := v.Verify(context.Background(), "secret-a")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user != "alice" {
		t.Errorf("user = %q, want alice", user)
	}

	if _, err := v.Verify(context.Background(), "nope"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestParseTokenList(t *testing.T) {
	tokens, err := ParseTokenList("secret-a:alice, secret-b:bob")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tokens["secret-a"] != "alice" || tokens["secret-b"] != "bob" {
		t.Errorf("tokens = %v", tokens)
	}
}

func TestParseTokenListMalformed(t *testing.T) {
	for _, s := range []string{"justatoken", ":user", "token:"} {
		if _, err := ParseTokenList(s); err == nil {
			t.Errorf("ParseTokenList(%q) succeeded, want error", s)
		}
	}
}

func TestParseTokenListEmptyEntries(t *testing.T) {
	tokens, err := ParseTokenList("secret:alice,,")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("tokens = %v", tokens)
	}
}
