package httpserver

import (
	"net/url"
	"testing"

	"github.com/andes-cine/bookings-api/internal/repository"
)

func FuzzBuildListQuery(f *testing.F) {
	seeds := []string{
		"status=CONFIRMED&movie_id=m-1&limit=50",
		"id=null&_id=undefined&booking_id=b-1",
		"sort=-created_at&date_from=2024-01-01&date_to=mañana",
		"limit=99999&page=-3",
		"email= Ana@X.com ",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		q := buildListQuery(values)

		if q.Limit < 1 || q.Limit > repository.MaxLimit {
			t.Fatalf("limit out of range: %d (input %q)", q.Limit, raw)
		}
		if q.Page < 1 {
			t.Fatalf("page out of range: %d (input %q)", q.Page, raw)
		}
		if !repository.SortableField(q.Sort.Field) {
			t.Fatalf("unsortable field survived: %q (input %q)", q.Sort.Field, raw)
		}
	})
}
