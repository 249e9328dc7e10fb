// Package user persists accounts and refresh tokens.
package user

import (
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/bomatic/bomatic-server/internal/errors"
)

// User is a registered account.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	IsVerified   bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is a stored refresh token. Only the SHA-256 hash of the token
// is persisted.
type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"`
	TokenHash string `gorm:"uniqueIndex;size:64;not null"`
	UserID    uint   `gorm:"index;not null"`
	ExpiresAt time.Time
	Revoked   bool `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// Store provides account persistence.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store on the given connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&User{}, &RefreshToken{})
}

// Create inserts a new user. A duplicate email maps to AlreadyExists.
func (s *Store) Create(u *User) error {
	err := s.db.Create(u).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.AlreadyExists("user")
		}
		return errors.DatabaseError(err)
	}
	return nil
}

// GetByEmail looks an account up by email.
func (s *Store) GetByEmail(email string) (*User, error) {
	var u User
	err := s.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("user", email)
		}
		return nil, errors.DatabaseError(err)
	}
	return &u, nil
}

// GetByID looks an account up by id.
func (s *Store) GetByID(id uint) (*User, error) {
	var u User
	err := s.db.First(&u, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("user", "")
		}
		return nil, errors.DatabaseError(err)
	}
	return &u, nil
}

// MarkVerified sets the verified flag. Already-verified accounts are a no-op.
func (s *Store) MarkVerified(id uint) error {
	err := s.db.Model(&User{}).Where("id = ?", id).Update("is_verified", true).Error
	if err != nil {
		return errors.DatabaseError(err)
	}
	return nil
}

// SaveRefreshToken stores a new token hash. Issuing a token rotates: every
// live token the user holds is revoked before the insert, so a stolen older
// token cannot mint new sessions.
func (s *Store) SaveRefreshToken(t *RefreshToken) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&RefreshToken{}).
			Where("user_id = ? AND revoked = ?", t.UserID, false).
			Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return errors.DatabaseError(err)
	}
	return nil
}

// GetRefreshToken looks a token up by its hash.
func (s *Store) GetRefreshToken(tokenHash string) (*RefreshToken, error) {
	var t RefreshToken
	err := s.db.Where("token_hash = ?", tokenHash).First(&t).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.InvalidToken()
		}
		return nil, errors.DatabaseError(err)
	}
	return &t, nil
}
