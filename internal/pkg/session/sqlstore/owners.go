package sqlstore

import (
	"context"
	"errors"
	"strings"

	"github.com/chattr/authcore/internal/models"
	"github.com/chattr/authcore/internal/pkg/session"
	"gorm.io/gorm"
)

// Users is the users table. It resolves session owners and backs register/login.
type Users struct{ db *gorm.DB }

func NewUsers(db *gorm.DB) *Users { return &Users{db: db} }

func (u *Users) FindOwnerByID(ctx context.Context, id string) (*session.Owner, error) {
	user, err := u.first(ctx, "id = ?", id)
	if err != nil || user == nil {
		return nil, err
	}
	return &session.Owner{ID: user.ID, Username: user.Username}, nil
}

func (u *Users) FindOwnerByUsername(ctx context.Context, username string) (*session.Owner, error) {
	user, err := u.first(ctx, "username = ?", strings.TrimSpace(username))
	if err != nil || user == nil {
		return nil, err
	}
	return &session.Owner{ID: user.ID, Username: user.Username}, nil
}

// FindUserByUsername returns the full user row including the password hash.
func (u *Users) FindUserByUsername(ctx context.Context, username string) (*models.UserModel, error) {
	return u.first(ctx, "username = ?", strings.TrimSpace(username))
}

func (u *Users) CreateUser(ctx context.Context, user *models.UserModel) error {
	err := u.db.WithContext(ctx).Create(user).Error
	if isDuplicateKey(err) {
		return models.ErrUsernameTaken
	}
	return err
}

func (u *Users) first(ctx context.Context, query string, arg string) (*models.UserModel, error) {
	var user models.UserModel
	err := u.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
