package models

import "errors"

// UserModel is a session owner. Only the id and username matter to credential issuance.
type UserModel struct {
	Base `bson:",inline"`

	Username string `json:"username" gorm:"size:64;uniqueIndex;not null" bson:"username"`
	Password string `json:"-"        gorm:"not null"                     bson:"password"`
}

func (UserModel) TableName() string { return "users" }

// ErrUsernameTaken is returned by user stores on a username collision.
var ErrUsernameTaken = errors.New("username already taken")
