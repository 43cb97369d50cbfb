package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/chattr/authcore/internal/models"
	"github.com/chattr/authcore/internal/pkg/session"
	"golang.org/x/crypto/bcrypt"
)

// UserStore persists accounts. sqlstore.Users and mongostore.Users implement it.
type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.UserModel, error)
	CreateUser(ctx context.Context, user *models.UserModel) error
}

// Sessions is the part of session.Manager the HTTP layer drives.
type Sessions interface {
	IssuePair(ctx context.Context, userID, username string) (session.Pair, error)
	Rotate(ctx context.Context, token string) (session.Pair, error)
	RevokeOne(ctx context.Context, token string) (bool, error)
	RevokeAll(ctx context.Context, userID string) (bool, error)
	VerifyAccess(token string) (*session.Identity, error)
}

type Service struct {
	users    UserStore
	sessions Sessions
	cost     int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(users UserStore, sessions Sessions) *Service {
	return &Service{users: users, sessions: sessions, cost: bcrypt.DefaultCost}
}

func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (*models.UserModel, session.Pair, error) {
	if len(dto.Password) > maxPasswordBytes {
		return nil, session.Pair{}, errPasswordLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, session.Pair{}, errPasswordLong
	}
	if err != nil {
		return nil, session.Pair{}, err
	}
	u := &models.UserModel{Username: strings.TrimSpace(dto.Username), Password: string(hash)}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			return nil, session.Pair{}, errUsernameTaken
		}
		return nil, session.Pair{}, err
	}
	pair, err := s.sessions.IssuePair(ctx, u.ID, u.Username)
	return u, pair, err
}

func (s *Service) Login(ctx context.Context, dto *LoginDTO) (*models.UserModel, session.Pair, error) {
	u, err := s.users.FindUserByUsername(ctx, dto.Username)
	if err != nil {
		return nil, session.Pair{}, err
	}
	if u == nil {
		// Burn a comparison so unknown usernames take as long as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(dto.Password))
		return nil, session.Pair{}, errInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)); err != nil {
		return nil, session.Pair{}, errInvalidLogin
	}
	pair, err := s.sessions.IssuePair(ctx, u.ID, u.Username)
	return u, pair, err
}

// Refresh exchanges a refresh token for a new pair. The presented token is spent.
func (s *Service) Refresh(ctx context.Context, token string) (session.Pair, error) {
	if strings.TrimSpace(token) == "" {
		return session.Pair{}, errMissingToken
	}
	return s.sessions.Rotate(ctx, token)
}

// Logout revokes one refresh token. An empty or already dead token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	_, err := s.sessions.RevokeOne(ctx, token)
	return err
}

func (s *Service) LogoutAll(ctx context.Context, userID string) (bool, error) {
	return s.sessions.RevokeAll(ctx, userID)
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("authcore-dummy-password"), s.cost)
	})
	return s.dummyHash
}
