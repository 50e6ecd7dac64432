package user

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestUserService() *UserService {
	return NewUserService(NewUserServiceParams{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestEnsure(t *testing.T) {
	s := newTestUserService()

	t.Run("creates user with supplied identity", func(t *testing.T) {
		u := s.Ensure("u1")
		if u.ID != "u1" {
			t.Fatalf("ID=%q, want %q", u.ID, "u1")
		}
		if !u.IPv6Support {
			t.Fatalf("expected IPv6Support=true")
		}
	})

	t.Run("returns existing record on repeat", func(t *testing.T) {
		first := s.Ensure("u2")
		second := s.Ensure("u2")
		if first != second {
			t.Fatalf("expected the same record for the same identity")
		}
	})

	t.Run("generates identity when omitted", func(t *testing.T) {
		u := s.Ensure("")
		if !strings.HasPrefix(u.ID, "ipv6_user_") {
			t.Fatalf("ID=%q, want ipv6_user_ prefix", u.ID)
		}
		other := s.Ensure("")
		if other.ID == u.ID {
			t.Fatalf("expected distinct generated identities")
		}
	})
}

func TestGet(t *testing.T) {
	s := newTestUserService()
	s.Ensure("u1")

	t.Run("known user", func(t *testing.T) {
		u, err := s.Get("u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if u.ID != "u1" {
			t.Fatalf("ID=%q, want %q", u.ID, "u1")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := s.Get("nobody"); err != ErrUserNotExist {
			t.Fatalf("Get() error = %v, want ErrUserNotExist", err)
		}
	})

	t.Run("stale identity keeps resolving", func(t *testing.T) {
		// users are never removed by the relay core
		if _, err := s.Get("u1"); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if s.Count() != 1 {
			t.Fatalf("Count()=%d, want 1", s.Count())
		}
	})
}
