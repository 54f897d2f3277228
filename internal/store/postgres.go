package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-cafe-orders.git/internal/redisx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// PG stores each collection as jsonb rows in the documents table and
// publishes an invalidation on the collection's live channel after every
// write. Redis is optional; without it writes are silent.
type PG struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

var _ Store = (*PG)(nil)

func (s *PG) Get(ctx context.Context, collection, key string, out any) error {
	var raw []byte
	err := s.DB.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection=$1 AND key=$2`,
		collection, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *PG) Upsert(ctx context.Context, collection, key, owner string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO documents (collection, key, owner, doc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, key)
		DO UPDATE SET owner=$3, doc=$4, updated_at=now()
	`, collection, key, owner, raw)
	if err != nil {
		return err
	}
	s.invalidate(ctx, collection, key)
	return nil
}

func (s *PG) Update(ctx context.Context, collection, key, owner string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	ct, err := s.DB.Exec(ctx, `
		UPDATE documents SET owner=$3, doc=$4, updated_at=now()
		WHERE collection=$1 AND key=$2
	`, collection, key, owner, raw)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, collection, key)
	return nil
}

func (s *PG) Delete(ctx context.Context, collection, key string) error {
	_, err := s.DB.Exec(ctx,
		`DELETE FROM documents WHERE collection=$1 AND key=$2`, collection, key)
	if err != nil {
		return err
	}
	s.invalidate(ctx, collection, key)
	return nil
}

func (s *PG) ListOwned(ctx context.Context, collection, owner string) ([]json.RawMessage, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT doc FROM documents
		WHERE collection=$1 AND owner=$2
		ORDER BY updated_at
	`, collection, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}

func (s *PG) invalidate(ctx context.Context, collection, key string) {
	if s.Redis == nil {
		return
	}
	// best effort; readers fall back to polling the store
	_ = s.Redis.Publish(ctx, fmt.Sprintf(redisx.ChanLive, collection), key).Err()
}
