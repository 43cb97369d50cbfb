package auth

import (
	"errors"
	"time"

	"github.com/chattr/authcore/internal/models"
	"github.com/chattr/authcore/internal/pkg/session"
)

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// RefreshDTO is optional; browser clients send the refresh cookie instead.
type RefreshDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Created  time.Time `json:"created,omitempty"`
}

type authResponse struct {
	User *userResponse `json:"user,omitempty"`
	session.Pair
}

var (
	errInvalidLogin  = errors.New("invalid username or password")
	errUsernameTaken = errors.New("username already taken")
	errMissingToken  = errors.New("refresh token is required")
	errPasswordLong  = errors.New("password must be at most 72 bytes")
)

// maxPasswordBytes is bcrypt's input limit; the binding tag counts characters.
const maxPasswordBytes = 72

func toResponse(u *models.UserModel) *userResponse {
	return &userResponse{ID: u.ID, Username: u.Username, Created: u.CreatedAt}
}
