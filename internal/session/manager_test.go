package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/model"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, exp *time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "7"}
	if exp != nil {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newFileManager(t *testing.T) (*Manager, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	return NewManager(store, zerolog.Nop(), WithClock(func() time.Time { return fixedNow })), store
}

func TestLoginPersistsAndRestores(t *testing.T) {
	exp := fixedNow.Add(time.Hour)
	token := signToken(t, &exp)
	user := model.User{ID: 7, Email: "s@x.io", Name: "Sam", Role: model.RoleStudent}

	m, store := newFileManager(t)
	if err := m.Login(context.Background(), token, user); err != nil {
		t.Fatalf("Login: %v", err)
	}

	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("session file mode = %v, want 0600", info.Mode().Perm())
	}

	restored := NewManager(store, zerolog.Nop(), WithClock(func() time.Time { return fixedNow }))
	got, ok, err := restored.Restore(context.Background())
	if err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	if got != user {
		t.Fatalf("restored user = %+v, want %+v", got, user)
	}
	if restored.Token() != token {
		t.Fatalf("restored token mismatch")
	}
	if restored.IsExpired() {
		t.Fatalf("token should not be expired yet")
	}
}

func TestRestoreClearsExpiredToken(t *testing.T) {
	exp := fixedNow.Add(-time.Second)
	m, store := newFileManager(t)
	if err := store.Save(context.Background(), Record{Token: signToken(t, &exp), User: model.User{ID: 1}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, ok, err := m.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ok {
		t.Fatalf("expired session must not be restored")
	}
	if _, err := os.Stat(store.path); !os.IsNotExist(err) {
		t.Fatalf("expected session file to be removed, stat err=%v", err)
	}
	if _, loggedIn := m.Current(); loggedIn {
		t.Fatalf("manager should be logged out")
	}
}

func TestExpiryBoundaries(t *testing.T) {
	m, _ := newFileManager(t)

	exactlyNow := fixedNow
	if !m.expired(signToken(t, &exactlyNow)) {
		t.Fatalf("token expiring now should count as expired")
	}
	if m.expired(signToken(t, nil)) {
		t.Fatalf("token without exp should never expire locally")
	}
	if !m.expired("not-a-jwt") {
		t.Fatalf("undecodable token should count as expired")
	}
}

func TestLogoutClearsStoreAndMemory(t *testing.T) {
	m, store := newFileManager(t)
	if err := m.Login(context.Background(), signToken(t, nil), model.User{ID: 3, Role: model.RoleTeacher}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if m.Token() != "" {
		t.Fatalf("token should be empty after logout")
	}
	if _, ok, _ := store.Load(context.Background()); ok {
		t.Fatalf("store should be empty after logout")
	}
	if m.IsExpired() {
		t.Fatalf("a logged-out manager is not expired")
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	m, _ := newFileManager(t)
	if err := m.Login(context.Background(), "", model.User{}); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
