package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names
const (
	ColUsers  = "users"
	ColTokens = "tokens"
)

// Mongo bundles the client with the selected database.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
	// Transactions is true when the deployment is a replica set or sharded
	// cluster. Standalone servers reject multi-document transactions.
	Transactions bool
}

// NewMongo connects, verifies the connection and detects transaction support
func NewMongo(cfg config.MongoConfig) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	m := &Mongo{Client: client, DB: client.Database(cfg.Name)}

	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := m.DB.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err == nil {
		m.Transactions = hello.SetName != "" || hello.Msg == "isdbgrid"
	}

	return m, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Close disconnects the client
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and TTL indexes the stores rely on.
// Expired token records are removed by the server once expires_at passes.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	type idx struct {
		col  string
		keys bson.D
		opts *options.IndexOptionsBuilder
	}

	indexes := []idx{
		{ColUsers, bson.D{{Key: "email", Value: 1}}, options.Index().SetUnique(true)},

		{ColTokens, bson.D{{Key: "token", Value: 1}}, options.Index().SetUnique(true)},
		{ColTokens, bson.D{{Key: "user_id", Value: 1}, {Key: "type", Value: 1}}, nil},
		{ColTokens, bson.D{{Key: "expires_at", Value: 1}}, options.Index().SetExpireAfterSeconds(0)},
	}

	for _, ix := range indexes {
		model := mongo.IndexModel{Keys: ix.keys}
		if ix.opts != nil {
			model.Options = ix.opts
		}
		if _, err := m.DB.Collection(ix.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", ix.col, err)
		}
	}
	return nil
}
