package tracker

import (
	"context"
	"testing"
	"time"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/models"
)

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user := mustRegister(t, svc, "alice")
	if user.Password == "secret" || !isBcryptHash(user.Password) {
		t.Fatal("password should be stored as a bcrypt hash")
	}

	_, err := svc.Register(ctx, "alice", "other")
	wantKind(t, err, apperr.Conflict)

	got, session, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID || session.UserID != user.ID {
		t.Fatalf("login returned wrong user %+v / %+v", got, session)
	}
	if want := fixedNow.Add(30 * 24 * time.Hour); !session.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", session.ExpiresAt, want)
	}

	_, _, err = svc.Login(ctx, "alice", "wrong")
	wantKind(t, err, apperr.Unauthorized)
	_, _, err = svc.Login(ctx, "nobody", "secret")
	wantKind(t, err, apperr.Unauthorized)
	_, _, err = svc.Login(ctx, "alice", "")
	wantKind(t, err, apperr.Validation)
}

func TestLoginLegacyPlaintext(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	legacy := models.User{ID: "legacy-1", Username: "carol", Password: "hunter2", CreatedAt: fixedNow, UpdatedAt: fixedNow}
	if err := store.CreateUser(ctx, legacy); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, _, err := svc.Login(ctx, "carol", "hunter2"); err != nil {
		t.Fatalf("legacy login failed: %v", err)
	}
	_, _, err := svc.Login(ctx, "carol", "hunter3")
	wantKind(t, err, apperr.Unauthorized)
}

func TestLogoutAndPurge(t *testing.T) {
	now := fixedNow
	svc, store, _ := newTestService(t)
	svc.now = func() time.Time { return now }
	svc.sessionTTL = time.Hour
	ctx := context.Background()
	mustRegister(t, svc, "alice")

	_, first, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, second, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, first.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if s, _ := store.FindSession(ctx, first.Token); s != nil {
		t.Fatal("session should be deleted")
	}
	if err := svc.Logout(ctx, first.Token); err != nil {
		t.Fatalf("second logout should be a no-op: %v", err)
	}
	wantKind(t, svc.Logout(ctx, ""), apperr.Validation)

	now = fixedNow.Add(2 * time.Hour)
	n, err := svc.PurgeExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged session, got %d", n)
	}
	if s, _ := store.FindSession(ctx, second.Token); s != nil {
		t.Fatal("expired session should be purged")
	}
}
