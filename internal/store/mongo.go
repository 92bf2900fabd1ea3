package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/juju/clock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ppiankov/candidstance/internal/model"
)

// MongoStore persists records in a MongoDB collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	clock      clock.Clock
}

// NewMongoStore connects, pings and ensures the unique name index
func NewMongoStore(ctx context.Context, cfg model.StoreConfig, clk clock.Clock) (*MongoStore, error) {
	if clk == nil {
		clk = clock.WallClock
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo store requires a URI")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = databaseFromURI(cfg.URI)
	}
	collName := cfg.Collection
	if collName == "" {
		collName = "candidates"
	}

	collection := client.Database(dbName).Collection(collName)

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "normalizedName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: collection,
		clock:      clk,
	}, nil
}

// Find returns the record for name
func (s *MongoStore) Find(ctx context.Context, name string) (*model.CandidateRecord, error) {
	key, err := normalizedKey(name)
	if err != nil {
		return nil, err
	}

	var rec model.CandidateRecord
	err = s.collection.FindOne(ctx, bson.M{"normalizedName": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	return &rec, nil
}

// Upsert increments searchCount and replaces stances in one findAndModify
func (s *MongoStore) Upsert(ctx context.Context, name string, stances []model.PoliticalStance) (*model.CandidateRecord, error) {
	key, err := normalizedKey(name)
	if err != nil {
		return nil, err
	}

	update := upsertUpdate(key, name, stances, s.clock.Now().UTC())

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec model.CandidateRecord
	err = s.collection.FindOneAndUpdate(ctx, bson.M{"normalizedName": key}, update, opts).Decode(&rec)
	if err != nil {
		return nil, fmt.Errorf("upsert candidate: %w", err)
	}
	return &rec, nil
}

// upsertUpdate sets the latest analysis, bumps searchCount and seeds the
// lookup key on insert
func upsertUpdate(key, name string, stances []model.PoliticalStance, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"name":         name,
			"stances":      cloneStances(stances),
			"lastUpdated":  now,
			"lastSearched": now,
		},
		"$inc":         bson.M{"searchCount": 1},
		"$setOnInsert": bson.M{"normalizedName": key},
	}
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// databaseFromURI returns the path component of a mongo URI, or "candidstance"
func databaseFromURI(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "candidstance"
	}
	name := strings.Trim(parsed.Path, "/")
	if name == "" {
		return "candidstance"
	}
	return name
}
