package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andes-cine/bookings-api/internal/store"
)

// ErrNotFound indicates no booking exists at the requested identity.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates a duplicate identity (unique-key violation).
var ErrConflict = errors.New("repository: duplicate key")

// MatTable is the materialized projection backing fast reads.
const MatTable = "bookings_mat"

// CollationName is the Spanish primary-strength collation the migration
// attempts to create.
const CollationName = "booking_es"

// Repository aggregates booking persistence and carries the read-path
// capabilities probed once at startup.
type Repository struct {
	Bookings     *BookingsRepository
	Materialized *MaterializedRepository

	pool            *pgxpool.Pool
	matAvailable    bool
	localeCollation bool
}

// New constructs a Repository backed by the provided store, probing once for
// the materialized projection and the locale collation. Neither probe is
// re-evaluated during normal operation; a restart picks up a newly built
// projection.
func New(ctx context.Context, st *store.Store) (*Repository, error) {
	matAvailable, err := st.HasTable(ctx, MatTable)
	if err != nil {
		return nil, err
	}
	localeCollation, err := st.HasCollation(ctx, CollationName)
	if err != nil {
		return nil, err
	}
	return NewWithPool(st.Pool(), matAvailable, localeCollation), nil
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool, matAvailable, localeCollation bool) *Repository {
	return &Repository{
		Bookings:        &BookingsRepository{pool: pool},
		Materialized:    &MaterializedRepository{pool: pool},
		pool:            pool,
		matAvailable:    matAvailable,
		localeCollation: localeCollation,
	}
}

// MaterializationAvailable reports which read path List uses.
func (r *Repository) MaterializationAvailable() bool { return r.matAvailable }

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}
