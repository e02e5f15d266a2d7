package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andes-cine/bookings-api/internal/domain"
)

// Pagination bounds. Out-of-range input falls back to the default rather
// than clamping to zero.
const (
	DefaultLimit = 50
	MaxLimit     = 200

	// maxOffset bounds page*limit so the OFFSET computation cannot overflow
	// on absurd but parseable page numbers. Pages past it are empty anyway.
	maxOffset = 1 << 31
)

// DefaultSort orders newest bookings first.
var DefaultSort = SortKey{Field: "created_at_dt", Desc: true}

// SortKey is a single sort field, optionally descending. Compound sorts are
// not supported.
type SortKey struct {
	Field string
	Desc  bool
}

// ListQuery carries the structured filter, sort key, and page window built
// from a request's query parameters. Nil pointers contribute no filter.
type ListQuery struct {
	ID            *string
	MovieID       *string
	CinemaID      *string
	ShowtimeID    *string
	UserID        *string
	Status        *string
	Source        *string
	PaymentMethod *string
	Email         *string
	DateFrom      *time.Time
	DateTo        *time.Time

	Sort  SortKey
	Limit int
	Page  int
}

// ListResult is the paginated envelope. Count is the size of this page, not
// the total match count; no second count query is issued.
type ListResult struct {
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Count int               `json:"count"`
	Data  []domain.Document `json:"data"`
}

// sortColumn maps an exposed sort field to its expression on each read path.
// Text-typed keys get locale collation when the engine supports it.
type sortColumn struct {
	live string
	mat  string
	text bool
}

var sortColumns = map[string]sortColumn{
	"created_at_dt":  {live: "booking_ts(doc)", mat: "created_at_dt"},
	"created_at":     {live: "doc->>'created_at'", mat: "doc->>'created_at'", text: true},
	"price_total":    {live: "booking_num(doc->'price_total')", mat: "booking_num(doc->'price_total')"},
	"seat_count":     {live: "booking_seat_count(doc)", mat: "seat_count"},
	"email_norm":     {live: "lower(doc#>>'{user,email}')", mat: "email_norm", text: true},
	"user.name":      {live: "doc#>>'{user,name}'", mat: "doc#>>'{user,name}'", text: true},
	"user_id":        {live: "doc#>>'{user,user_id}'", mat: "user_id", text: true},
	"status":         {live: "doc->>'status'", mat: "status", text: true},
	"payment_method": {live: "doc->>'payment_method'", mat: "payment_method", text: true},
	"source":         {live: "doc->>'source'", mat: "source", text: true},
	"movie_id":       {live: "doc->>'movie_id'", mat: "movie_id", text: true},
	"cinema_id":      {live: "doc->>'cinema_id'", mat: "cinema_id", text: true},
	"showtime_id":    {live: "doc->>'showtime_id'", mat: "showtime_id", text: true},
	"currency":       {live: "doc->>'currency'", mat: "doc->>'currency'", text: true},
	"_id":            {live: "id", mat: "id", text: true},
	"id":             {live: "id", mat: "id", text: true},
}

// SortableField reports whether a sort key is recognized. Unrecognized keys
// fall back to the default sort instead of erroring.
func SortableField(name string) bool {
	_, ok := sortColumns[name]
	return ok
}

// List applies filter → sort → skip → limit against the materialized
// projection when it was present at startup, or against a live derivation
// over the primary collection otherwise. Both paths compute derived fields
// with the same expressions, so results never diverge for materialized
// records.
func (r *Repository) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	} else if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > maxOffset/q.Limit+1 {
		q.Page = maxOffset/q.Limit + 1
	}

	mat := r.matAvailable
	field := func(liveExpr, matCol string) string {
		if mat {
			return matCol
		}
		return liveExpr
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ID != nil {
		where = append(where, fmt.Sprintf("id = %s", arg(*q.ID)))
	}
	exact := []struct {
		val *string
		col string
	}{
		{q.MovieID, "movie_id"},
		{q.CinemaID, "cinema_id"},
		{q.ShowtimeID, "showtime_id"},
		{q.Status, "status"},
		{q.Source, "source"},
		{q.PaymentMethod, "payment_method"},
	}
	for _, f := range exact {
		if f.val != nil {
			where = append(where, fmt.Sprintf("%s = %s", field("doc->>'"+f.col+"'", f.col), arg(*f.val)))
		}
	}
	if q.UserID != nil {
		where = append(where, fmt.Sprintf("%s = %s", field("doc#>>'{user,user_id}'", "user_id"), arg(*q.UserID)))
	}
	if q.Email != nil {
		// Matches the precomputed normalized email case-insensitively, or the
		// raw nested email verbatim.
		norm := arg(strings.ToLower(*q.Email))
		raw := arg(*q.Email)
		where = append(where, fmt.Sprintf("(%s = %s OR doc#>>'{user,email}' = %s)",
			field("lower(doc#>>'{user,email}')", "email_norm"), norm, raw))
	}
	tsExpr := field("booking_ts(doc)", "created_at_dt")
	if q.DateFrom != nil {
		where = append(where, fmt.Sprintf("%s >= %s", tsExpr, arg(*q.DateFrom)))
	}
	if q.DateTo != nil {
		where = append(where, fmt.Sprintf("%s < %s", tsExpr, arg(*q.DateTo)))
	}

	col, ok := sortColumns[q.Sort.Field]
	if !ok {
		col = sortColumns[DefaultSort.Field]
		q.Sort = DefaultSort
	}
	sortExpr := col.live
	if mat {
		sortExpr = col.mat
	}
	if col.text {
		if r.localeCollation {
			sortExpr = fmt.Sprintf(`(%s) COLLATE %q`, sortExpr, CollationName)
		} else {
			sortExpr = fmt.Sprintf("lower(%s)", sortExpr)
		}
	}
	dir := "ASC"
	if q.Sort.Desc {
		dir = "DESC"
	}

	queryBuilder := strings.Builder{}
	if mat {
		queryBuilder.WriteString("SELECT doc FROM " + MatTable)
	} else {
		// The live path derives created_at_dt and email_norm inline, with the
		// same expressions the refresh pipeline uses.
		queryBuilder.WriteString("SELECT doc || jsonb_build_object(" +
			"'created_at_dt', to_jsonb(booking_ts(doc)), " +
			"'email_norm', lower(doc#>>'{user,email}')) FROM bookings")
	}
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id ASC", sortExpr, dir))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, (q.Page-1)*q.Limit))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	data := make([]domain.Document, 0, q.Limit)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return ListResult{}, err
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return ListResult{}, err
		}
		data = append(data, doc)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, err
	}

	return ListResult{Page: q.Page, Limit: q.Limit, Count: len(data), Data: data}, nil
}
