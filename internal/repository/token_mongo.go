package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/pkg/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type MongoTokenStore struct {
	client       *mongo.Client
	col          *mongo.Collection
	users        *mongo.Collection
	transactions bool
}

func NewMongoTokenStore(m *database.Mongo) *MongoTokenStore {
	return &MongoTokenStore{
		client:       m.Client,
		col:          m.DB.Collection(database.ColTokens),
		users:        m.DB.Collection(database.ColUsers),
		transactions: m.Transactions,
	}
}

func (s *MongoTokenStore) Insert(ctx context.Context, record *model.TokenRecord) error {
	if record.ID == "" {
		record.ID = bson.NewObjectID().Hex()
	}
	stamp(&record.CreatedAt, &record.UpdatedAt)

	_, err := s.col.InsertOne(ctx, record)
	return wrapMongoError(err)
}

// Rotate runs invalidate+insert inside a transaction when the deployment
// supports one. The transaction also stamps the owning user document so two
// concurrent rotations for the same user conflict and are serialized by the
// driver's retry loop. A standalone server gets the two steps back to back.
func (s *MongoTokenStore) Rotate(ctx context.Context, record *model.TokenRecord) error {
	if !s.transactions {
		if _, err := s.InvalidateAllValid(ctx, record.UserID, record.Kind); err != nil {
			return err
		}
		return s.Insert(ctx, record)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		_, err := s.users.UpdateOne(txCtx,
			bson.D{{Key: "_id", Value: record.UserID}},
			bson.D{{Key: "$set", Value: bson.D{{Key: "tokens_rotated_at", Value: time.Now().UTC()}}}},
		)
		if err != nil {
			return nil, wrapMongoError(err)
		}
		if _, err := s.InvalidateAllValid(txCtx, record.UserID, record.Kind); err != nil {
			return nil, err
		}
		return nil, s.Insert(txCtx, record)
	})
	return err
}

func (s *MongoTokenStore) InvalidateAllValid(ctx context.Context, userID string, kind model.TokenKind) (int64, error) {
	return s.invalidate(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "type", Value: kind},
		{Key: "is_valid", Value: true},
	})
}

func (s *MongoTokenStore) invalidate(ctx context.Context, filter bson.D) (int64, error) {
	res, err := s.col.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_valid", Value: false},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return 0, wrapMongoError(err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoTokenStore) FindValid(ctx context.Context, token string, kind model.TokenKind, now time.Time) (*model.TokenRecord, error) {
	return findOne[model.TokenRecord](ctx, s.col, bson.D{
		{Key: "token", Value: token},
		{Key: "type", Value: kind},
		{Key: "is_valid", Value: true},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	})
}

func (s *MongoTokenStore) InvalidateByToken(ctx context.Context, token string, kind model.TokenKind) error {
	_, err := s.invalidate(ctx, bson.D{
		{Key: "token", Value: token},
		{Key: "type", Value: kind},
		{Key: "is_valid", Value: true},
	})
	return err
}
