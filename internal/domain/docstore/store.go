// Package docstore serves the study documents kept in MongoDB, the
// secondary store some deployments load the registry into.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	databaseName   = "ct"
	collectionName = "ct"
)

// Document is the projection of a study document returned by the API.
type Document struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	NCTID string             `bson:"nct_id" json:"nct_id"`
	Title string             `bson:"official_title" json:"title"`
}

type Summary struct {
	NumStudies int64 `json:"num_studies"`
}

// Store reads study documents.
type Store interface {
	Search(ctx context.Context, term string) ([]Document, error)
	Count(ctx context.Context) (int64, error)
	// GetByNCTID returns nil and no error when no document matches.
	GetByNCTID(ctx context.Context, nctID string) (*Document, error)
}

// MongoStore is a Store over the "ct" collection of the "ct" database.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials url and verifies the connection.
func Connect(ctx context.Context, url string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(databaseName).Collection(collectionName),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var projection = bson.D{{Key: "nct_id", Value: 1}, {Key: "official_title", Value: 1}}

// Search runs a $text query against the collection's text index.
func (s *MongoStore) Search(ctx context.Context, term string) ([]Document, error) {
	filter := bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: term}}}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	out := []Document{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *MongoStore) GetByNCTID(ctx context.Context, nctID string) (*Document, error) {
	var d Document
	err := s.coll.FindOne(ctx, bson.D{{Key: "nct_id", Value: nctID}},
		options.FindOne().SetProjection(projection)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", nctID, err)
	}
	return &d, nil
}
