// Package mongostore keeps refresh token records and users in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/chattr/authcore/internal/models"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TokensCollection = "refreshtokens"
	UsersCollection  = "users"
)

// Store implements session.Store on a mongo collection.
type Store struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, coll: db.Collection(TokensCollection)}
}

// EnsureIndexes creates the token, owner and expiry indexes. Safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isRevoked", Value: 1}}},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
	})
	return err
}

func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	stamp(&rec.Base)
	_, err := s.coll.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return session.ErrDuplicateToken
	}
	return err
}

func (s *Store) FindActive(ctx context.Context, token string, now time.Time) (*session.Record, error) {
	return s.findOne(ctx, bson.M{
		"token":     token,
		"isRevoked": false,
		"expiresAt": bson.M{"$gt": now},
	})
}

func (s *Store) Find(ctx context.Context, token string) (*session.Record, error) {
	return s.findOne(ctx, bson.M{"token": token})
}

func (s *Store) Revoke(ctx context.Context, token string, now time.Time) (bool, error) {
	res, err := s.coll.UpdateOne(ctx, bson.M{"token": token, "isRevoked": false}, revokedAt(now))
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) ListActiveTokens(ctx context.Context, userID string) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "token", bson.M{"userId": userID, "isRevoked": false})
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(values))
	for _, v := range values {
		if tok, ok := v.(string); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens, nil
}

func (s *Store) RevokeAll(ctx context.Context, userID string, now time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx, bson.M{"userId": userID, "isRevoked": false}, revokedAt(now))
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*session.Record, error) {
	var rec models.RefreshToken
	err := s.coll.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func revokedAt(now time.Time) bson.M {
	return bson.M{"$set": bson.M{"isRevoked": true, "updatedAt": now}}
}

// stamp fills what the gorm hooks fill on the SQL side.
func stamp(b *models.Base) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
}
