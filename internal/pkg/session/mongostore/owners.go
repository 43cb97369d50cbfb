package mongostore

import (
	"context"
	"errors"
	"strings"

	"github.com/chattr/authcore/internal/models"
	"github.com/chattr/authcore/internal/pkg/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Users is the users collection.
type Users struct{ coll *mongo.Collection }

func NewUsers(db *mongo.Database) *Users {
	return &Users{coll: db.Collection(UsersCollection)}
}

func (u *Users) EnsureIndexes(ctx context.Context) error {
	_, err := u.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (u *Users) FindOwnerByID(ctx context.Context, id string) (*session.Owner, error) {
	user, err := u.findOne(ctx, bson.M{"_id": id})
	if err != nil || user == nil {
		return nil, err
	}
	return &session.Owner{ID: user.ID, Username: user.Username}, nil
}

func (u *Users) FindOwnerByUsername(ctx context.Context, username string) (*session.Owner, error) {
	user, err := u.FindUserByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, err
	}
	return &session.Owner{ID: user.ID, Username: user.Username}, nil
}

func (u *Users) FindUserByUsername(ctx context.Context, username string) (*models.UserModel, error) {
	return u.findOne(ctx, bson.M{"username": strings.TrimSpace(username)})
}

func (u *Users) CreateUser(ctx context.Context, user *models.UserModel) error {
	stamp(&user.Base)
	_, err := u.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrUsernameTaken
	}
	return err
}

func (u *Users) findOne(ctx context.Context, filter bson.M) (*models.UserModel, error) {
	var user models.UserModel
	err := u.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
