package inventory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mevzuatgpt/regproc/internal/config"
	"github.com/mevzuatgpt/regproc/internal/match"
)

// MetadataStore reads the second inventory: the metadata collection that
// records every PDF the portal has ingested, keyed by pdf_adi.
type MetadataStore struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewMetadataStore(ctx context.Context, cfg config.MongoConfig) (*MetadataStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI not configured")
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MetadataStore{client: client, database: cfg.Database, collection: cfg.MetadataCollection}, nil
}

// Documents returns every metadata record as a loose field map.
func (s *MetadataStore) Documents(ctx context.Context) ([]match.Record, error) {
	coll := s.client.Database(s.database).Collection(s.collection)
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var out []match.Record
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		rec := make(match.Record, len(doc))
		for k, v := range doc {
			rec[k] = v
		}
		out = append(out, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}
	log.Info().Int("documents", len(out)).Msg("metadata inventory listed")
	return out, nil
}

func (s *MetadataStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
