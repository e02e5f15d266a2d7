package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andes-cine/bookings-api/internal/domain"
)

// BookingsRepository persists the primary bookings collection: one JSONB
// document per row, keyed by the caller-supplied identity. The primary
// collection is the source of truth; the materialized projection is derived
// from it and never written to directly by the write path.
type BookingsRepository struct {
	pool *pgxpool.Pool
}

// Insert stores a normalized booking document. The identity must already be
// present under _id.
func (r *BookingsRepository) Insert(ctx context.Context, doc domain.Document) error {
	id, _ := doc["_id"].(string)
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	if _, err := r.pool.Exec(ctx, `INSERT INTO bookings (id, doc) VALUES ($1, $2::jsonb)`, id, string(payload)); err != nil {
		return translateError(err)
	}
	return nil
}

// GetByID fetches one booking document by identity.
func (r *BookingsRepository) GetByID(ctx context.Context, id string) (domain.Document, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM bookings WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeDocument(raw)
}

// Update merges the normalized mutable subset into one booking and returns
// the post-update state. The engine's row count is authoritative: a matched
// record always yields its current body via a follow-up read, never a false
// not-found.
func (r *BookingsRepository) Update(ctx context.Context, id string, set domain.Document) (domain.Document, error) {
	payload, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE bookings SET doc = doc || $2::jsonb WHERE id = $1`, id, string(payload))
	if err != nil {
		return nil, translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes one booking, reporting whether a record existed.
func (r *BookingsRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func decodeDocument(raw []byte) (domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode booking: %w", err)
	}
	return doc, nil
}
