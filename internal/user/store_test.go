package user

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/bomatic/bomatic-server/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := NewStore(db)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)

	u := &User{Email: "a@example.com", PasswordHash: "hash", IsActive: true}
	if err := s.Create(u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}

	got, err := s.GetByEmail("a@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.IsVerified {
		t.Errorf("got = %+v", got)
	}

	byID, err := s.GetByID(u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Email != "a@example.com" {
		t.Errorf("email = %q", byID.Email)
	}
}

func TestStore_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	if err := s.Create(&User{Email: "a@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := s.Create(&User{Email: "a@example.com", PasswordHash: "h2"})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeAlreadyExists {
		t.Fatalf("error = %v, want %s", err, apperrors.ErrCodeAlreadyExists)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetByEmail("missing@example.com")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeNotFound {
		t.Fatalf("error = %v, want %s", err, apperrors.ErrCodeNotFound)
	}
}

func TestStore_MarkVerified(t *testing.T) {
	s := newTestStore(t)

	u := &User{Email: "a@example.com", PasswordHash: "h"}
	if err := s.Create(u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.MarkVerified(u.ID); err != nil {
		t.Fatalf("MarkVerified() error = %v", err)
	}
	got, _ := s.GetByID(u.ID)
	if !got.IsVerified {
		t.Error("user not marked verified")
	}
	// Second call is a no-op.
	if err := s.MarkVerified(u.ID); err != nil {
		t.Fatalf("MarkVerified() again error = %v", err)
	}
}

func TestStore_RefreshTokenLifecycle(t *testing.T) {
	s := newTestStore(t)

	u := &User{Email: "a@example.com", PasswordHash: "h"}
	if err := s.Create(u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tok := &RefreshToken{TokenHash: "hash-1", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.SaveRefreshToken(tok); err != nil {
		t.Fatalf("SaveRefreshToken() error = %v", err)
	}

	got, err := s.GetRefreshToken("hash-1")
	if err != nil {
		t.Fatalf("GetRefreshToken() error = %v", err)
	}
	if got.Revoked {
		t.Error("new token should not be revoked")
	}

	// Storing a second token rotates: the first is revoked.
	next := &RefreshToken{TokenHash: "hash-2", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.SaveRefreshToken(next); err != nil {
		t.Fatalf("SaveRefreshToken() second error = %v", err)
	}
	got, _ = s.GetRefreshToken("hash-1")
	if !got.Revoked {
		t.Error("older token should be revoked once a new one is stored")
	}
	got, _ = s.GetRefreshToken("hash-2")
	if got.Revoked {
		t.Error("newest token should stay live")
	}
}

func TestStore_UnknownRefreshToken(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRefreshToken("nope")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeInvalidToken {
		t.Fatalf("error = %v, want %s", err, apperrors.ErrCodeInvalidToken)
	}
}
