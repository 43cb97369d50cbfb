// Package sqlstore keeps refresh token records and users in MySQL through gorm.
package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/chattr/authcore/internal/models"
	"github.com/chattr/authcore/internal/pkg/session"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// Store implements session.Store on gorm.
type Store struct{ db *gorm.DB }

func New(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	err := s.db.WithContext(ctx).Create(rec).Error
	if isDuplicateKey(err) {
		return session.ErrDuplicateToken
	}
	return err
}

func (s *Store) FindActive(ctx context.Context, token string, now time.Time) (*session.Record, error) {
	return s.first(ctx, byToken(token), notRevoked, expiresAfter(now))
}

func (s *Store) Find(ctx context.Context, token string) (*session.Record, error) {
	return s.first(ctx, byToken(token))
}

// Revoke is a conditional update; RowsAffected is 0 when another caller got there first.
func (s *Store) Revoke(ctx context.Context, token string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Scopes(byToken(token), notRevoked).
		Updates(revokedAt(now))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListActiveTokens(ctx context.Context, userID string) ([]string, error) {
	var tokens []string
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Scopes(byUser(userID), notRevoked).
		Pluck("token", &tokens).Error
	return tokens, err
}

func (s *Store) RevokeAll(ctx context.Context, userID string, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Scopes(byUser(userID), notRevoked).
		Updates(revokedAt(now))
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Scopes(expiredBefore(now)).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) first(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) (*session.Record, error) {
	var rec models.RefreshToken
	err := s.db.WithContext(ctx).Scopes(scopes...).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func byToken(token string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB { return tx.Where("token = ?", token) }
}

func byUser(userID string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB { return tx.Where("user_id = ?", userID) }
}

func notRevoked(tx *gorm.DB) *gorm.DB { return tx.Where("is_revoked = ?", false) }

func expiresAfter(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB { return tx.Where("expires_at > ?", now) }
}

func expiredBefore(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB { return tx.Where("expires_at < ?", now) }
}

func revokedAt(now time.Time) map[string]interface{} {
	return map[string]interface{}{"is_revoked": true, "updated_at": now}
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
