// Package mongostore persists layouts in a MongoDB collection, one document
// per (client, page).
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/goliatone/go-gridlayout/components/layout"
)

// DefaultCollection is used when Options.Collection is empty.
const DefaultCollection = "page_layouts"

type document struct {
	ID           string    `bson:"_id"`
	ClientID     string    `bson:"client_id"`
	PageID       string    `bson:"page_id"`
	LayoutConfig string    `bson:"layout_config"`
	GridDensity  string    `bson:"grid_density"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newDocument(key layout.PageKey, cfg layout.PageLayoutConfig, now time.Time) (document, error) {
	data, err := layout.MarshalStoredLayout(cfg)
	if err != nil {
		return document{}, err
	}
	return document{
		ID:           key.String(),
		ClientID:     key.ClientID,
		PageID:       key.PageID,
		LayoutConfig: string(data),
		GridDensity:  string(layout.ParseGridDensity(string(cfg.GridDensity))),
		UpdatedAt:    now.UTC(),
	}, nil
}

func (d document) config() (*layout.PageLayoutConfig, error) {
	return layout.DecodeStoredLayout([]byte(d.LayoutConfig), layout.ParseGridDensity(d.GridDensity))
}

// Store implements layout.Repository on a mongo collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

var _ layout.Repository = (*Store)(nil)

// Options configures Connect.
type Options struct {
	URI        string
	Database   string
	Collection string
}

// Connect dials the server and pings it before returning.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, errors.New("mongostore: uri is required")
	}
	if opts.Database == "" {
		opts.Database = "gridlayout"
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	client, err := mongo.Connect(options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	return New(client, client.Database(opts.Database).Collection(opts.Collection)), nil
}

// New wraps an existing client and collection.
func New(client *mongo.Client, collection *mongo.Collection) *Store {
	return &Store{client: client, collection: collection, now: time.Now}
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) FetchLayout(ctx context.Context, key layout.PageKey) (*layout.PageLayoutConfig, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: fetch %s: %w", key, err)
	}
	cfg, err := doc.config()
	if err != nil {
		return nil, fmt.Errorf("mongostore: fetch %s: %w", key, err)
	}
	return cfg, nil
}

func (s *Store) SaveLayout(ctx context.Context, key layout.PageKey, cfg layout.PageLayoutConfig) error {
	if err := key.Validate(); err != nil {
		return err
	}
	doc, err := newDocument(key, cfg, s.now())
	if err != nil {
		return err
	}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongostore: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) ResetLayout(ctx context.Context, key layout.PageKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key.String()}); err != nil {
		return fmt.Errorf("mongostore: reset %s: %w", key, err)
	}
	return nil
}
