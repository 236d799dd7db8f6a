package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	r := miniredis.RunT(t)
	s := NewRedisSessionStore(r.Addr(), "", time.Minute)

	token, err := s.NewSession("admin@example.com")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	email, ok, err := s.GetEmailByToken(token)
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if email != "admin@example.com" {
		t.Fatalf("email = %q", email)
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.GetEmailByToken(token); ok {
		t.Fatal("session still resolvable after delete")
	}
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	r := miniredis.RunT(t)
	s := NewRedisSessionStore(r.Addr(), "", time.Second)

	token, err := s.NewSession("admin@example.com")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	r.FastForward(2 * time.Second)
	if _, ok, _ := s.GetEmailByToken(token); ok {
		t.Fatal("expected session expired")
	}
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	s := NewMemorySessionStore(time.Millisecond)
	token, err := s.NewSession("admin@example.com")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := s.GetEmailByToken(token); ok {
		t.Fatal("expected session expired")
	}
}
