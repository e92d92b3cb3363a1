package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a referenced post or user document is absent.
var ErrNotFound = errors.New("document not found")

// Store wraps the backing document database. All querying, consistency and
// transactions are delegated to MongoDB; this layer is CRUD glue plus the
// identifier-set batching rules every caller has to honor.
type Store struct {
	client *mongo.Client
	posts  *mongo.Collection
	users  *mongo.Collection
}

// Connect dials the document store and verifies it is reachable.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongodb cannot be reached after connecting: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client: client,
		posts:  db.Collection("posts"),
		users:  db.Collection("users"),
	}, nil
}

// Close disconnects from the document store.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// withTransaction runs fn inside a session transaction. Requires the
// deployment to support multi-document transactions (replica set).
func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, fn)
}
