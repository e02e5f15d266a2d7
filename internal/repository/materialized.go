package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MaterializedRepository maintains the bookings_mat projection: one derived
// record per primary booking, refreshed explicitly. It is a best-effort read
// cache, never the source of truth; a stale entry self-heals on the next
// refresh.
type MaterializedRepository struct {
	pool *pgxpool.Pool
}

// derivedDocExpr builds the materialized document: the original fields plus
// the derived ones, computed with the same expressions the live read path
// uses.
const derivedDocExpr = `doc || jsonb_build_object(
        'created_at_dt', to_jsonb(booking_ts(doc)),
        'created_at_pe', to_char(booking_ts(doc) AT TIME ZONE 'America/Lima', 'YYYY-MM-DD"T"HH24:MI:SS.MS"-05:00"'),
        'email_norm', lower(doc#>>'{user,email}'),
        'seat_count', booking_seat_count(doc))`

const matUpsert = `
    INSERT INTO bookings_mat
        (id, doc, created_at_dt, email_norm, user_id, movie_id, cinema_id,
         showtime_id, status, payment_method, source, seat_count)
    SELECT id,
           ` + derivedDocExpr + `,
           booking_ts(doc),
           lower(doc#>>'{user,email}'),
           doc#>>'{user,user_id}',
           doc->>'movie_id',
           doc->>'cinema_id',
           doc->>'showtime_id',
           doc->>'status',
           doc->>'payment_method',
           doc->>'source',
           booking_seat_count(doc)
    FROM bookings
    %s
    ON CONFLICT (id) DO UPDATE SET
        doc            = EXCLUDED.doc,
        created_at_dt  = EXCLUDED.created_at_dt,
        email_norm     = EXCLUDED.email_norm,
        user_id        = EXCLUDED.user_id,
        movie_id       = EXCLUDED.movie_id,
        cinema_id      = EXCLUDED.cinema_id,
        showtime_id    = EXCLUDED.showtime_id,
        status         = EXCLUDED.status,
        payment_method = EXCLUDED.payment_method,
        source         = EXCLUDED.source,
        seat_count     = EXCLUDED.seat_count
`

var matSchema = []string{
	`CREATE TABLE IF NOT EXISTS bookings_mat (
        id             text PRIMARY KEY,
        doc            jsonb NOT NULL,
        created_at_dt  timestamptz,
        email_norm     text,
        user_id        text,
        movie_id       text,
        cinema_id      text,
        showtime_id    text,
        status         text,
        payment_method text,
        source         text,
        seat_count     integer
    )`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_created_at_dt_idx ON bookings_mat (created_at_dt)`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_email_norm_idx ON bookings_mat (email_norm)`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_user_id_idx ON bookings_mat (user_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_movie_id_idx ON bookings_mat (movie_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_cinema_id_idx ON bookings_mat (cinema_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_showtime_id_idx ON bookings_mat (showtime_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_status_idx ON bookings_mat (status)`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_payment_method_idx ON bookings_mat (payment_method)`,
	`CREATE INDEX IF NOT EXISTS bookings_mat_source_idx ON bookings_mat (source)`,
}

// EnsureSchema creates the projection table and its secondary indexes. The
// identity uniqueness comes from the primary key.
func (r *MaterializedRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range matSchema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("materialized schema: %w", err)
		}
	}
	return nil
}

// RefreshOne re-derives the projection for exactly one primary record,
// replacing any existing entry. A missing primary record is a no-op.
func (r *MaterializedRepository) RefreshOne(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, fmt.Sprintf(matUpsert, "WHERE id = $1"), id); err != nil {
		return fmt.Errorf("refresh booking %s: %w", id, err)
	}
	return nil
}

// RefreshAll recomputes the whole projection from the primary collection and
// returns the number of records written. With rebuild set, the table is
// dropped and recreated with its indexes first, giving an idempotent full
// rebuild that also sheds orphaned entries.
func (r *MaterializedRepository) RefreshAll(ctx context.Context, rebuild bool) (int64, error) {
	if rebuild {
		if _, err := r.pool.Exec(ctx, `DROP TABLE IF EXISTS bookings_mat`); err != nil {
			return 0, fmt.Errorf("drop projection: %w", err)
		}
	}
	if err := r.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(matUpsert, ""))
	if err != nil {
		return 0, fmt.Errorf("refresh projection: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes one projection entry; absent entries are not an error.
func (r *MaterializedRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM bookings_mat WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete projection %s: %w", id, err)
	}
	return nil
}
