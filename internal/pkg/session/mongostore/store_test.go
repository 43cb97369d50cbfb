package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/chattr/authcore/internal/models"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("create stamps id", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		rec := &session.Record{UserID: "u1", Token: "tok", ExpiresAt: now.Add(time.Hour)}
		require.NoError(mt, s.Create(ctx, rec))
		assert.NotEmpty(mt, rec.ID)
		assert.False(mt, rec.CreatedAt.IsZero())
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		err := s.Create(ctx, &session.Record{UserID: "u1", Token: "tok"})
		assert.ErrorIs(mt, err, session.ErrDuplicateToken)
	})

	mt.Run("find active", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+TokensCollection, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "r1"},
			{Key: "userId", Value: "u1"},
			{Key: "token", Value: "tok"},
			{Key: "isRevoked", Value: false},
			{Key: "expiresAt", Value: now.Add(time.Hour)},
		}))

		rec, err := s.FindActive(ctx, "tok", now)
		require.NoError(mt, err)
		require.NotNil(mt, rec)
		assert.Equal(mt, "r1", rec.ID)
		assert.Equal(mt, "u1", rec.UserID)
		assert.True(mt, rec.Active(now))
	})

	mt.Run("find missing", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+TokensCollection, mtest.FirstBatch))

		rec, err := s.Find(ctx, "nope")
		require.NoError(mt, err)
		assert.Nil(mt, rec)
	})

	mt.Run("revoke reports change", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		changed, err := s.Revoke(ctx, "tok", now)
		require.NoError(mt, err)
		assert.True(mt, changed)

		changed, err = s.Revoke(ctx, "tok", now)
		require.NoError(mt, err)
		assert.False(mt, changed)
	})

	mt.Run("list and revoke all", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"a", "b"}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 2}),
		)

		tokens, err := s.ListActiveTokens(ctx, "u1")
		require.NoError(mt, err)
		assert.ElementsMatch(mt, []string{"a", "b"}, tokens)

		n, err := s.RevokeAll(ctx, "u1", now)
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)
	})

	mt.Run("delete expired", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		n, err := s.DeleteExpired(ctx, now)
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, n)
	})
}

func TestUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("username taken", func(mt *mtest.T) {
		u := NewUsers(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		err := u.CreateUser(ctx, &models.UserModel{Username: "alice", Password: "hash"})
		assert.ErrorIs(mt, err, models.ErrUsernameTaken)
	})

	mt.Run("owner by username", func(mt *mtest.T) {
		u := NewUsers(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+UsersCollection, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "username", Value: "alice"},
			{Key: "password", Value: "hash"},
		}))

		owner, err := u.FindOwnerByUsername(ctx, " alice ")
		require.NoError(mt, err)
		require.NotNil(mt, owner)
		assert.Equal(mt, session.Owner{ID: "u1", Username: "alice"}, *owner)
	})
}
