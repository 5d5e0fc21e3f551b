package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/pkg/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(m *database.Mongo) *MongoUserStore {
	return &MongoUserStore{col: m.DB.Collection(database.ColUsers)}
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col, bson.D{{Key: "email", Value: email}})
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col, bson.D{{Key: "_id", Value: id}})
}

func (s *MongoUserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = bson.NewObjectID().Hex()
	stamp(&user.CreatedAt, &user.UpdatedAt)
	if user.PushTargets == nil {
		user.PushTargets = []string{}
	}

	if _, err := s.col.InsertOne(ctx, user); err != nil {
		user.ID = ""
		return wrapMongoError(err)
	}
	return nil
}

func (s *MongoUserStore) Exists(ctx context.Context, email string) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return false, wrapMongoError(err)
	}
	return n > 0, nil
}

func (s *MongoUserStore) AddPushTarget(ctx context.Context, userID, target string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{
			{Key: "$addToSet", Value: bson.D{{Key: "fcm_tokens", Value: target}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return wrapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
