package httpserver

import (
	"net/url"
	"testing"
	"time"

	"github.com/andes-cine/bookings-api/internal/repository"
)

func TestBuildListQuery(t *testing.T) {
	values, _ := url.ParseQuery("status=CONFIRMED&movie_id=m-1&email= Ana@X.com &date_from=2024-01-01&date_to=2024-02-01&sort=-price_total&limit=25&page=3")

	q := buildListQuery(values)
	if q.Status == nil || *q.Status != "CONFIRMED" {
		t.Fatalf("status not parsed: %+v", q.Status)
	}
	if q.MovieID == nil || *q.MovieID != "m-1" {
		t.Fatalf("movie_id not parsed: %+v", q.MovieID)
	}
	if q.Email == nil || *q.Email != "Ana@X.com" {
		t.Fatalf("email not trimmed: %+v", q.Email)
	}
	if q.DateFrom == nil || !q.DateFrom.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date_from parse failed: %+v", q.DateFrom)
	}
	if q.DateTo == nil || !q.DateTo.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date_to parse failed: %+v", q.DateTo)
	}
	if q.Sort.Field != "price_total" || !q.Sort.Desc {
		t.Fatalf("sort parse failed: %+v", q.Sort)
	}
	if q.Limit != 25 {
		t.Fatalf("limit = %d, want 25", q.Limit)
	}
	if q.Page != 3 {
		t.Fatalf("page = %d, want 3", q.Page)
	}
}

func TestBuildListQuery_BlankValuesIgnored(t *testing.T) {
	values, _ := url.ParseQuery("status=null&movie_id=UNDEFINED&email=&user_id=%20%20")

	q := buildListQuery(values)
	if q.Status != nil {
		t.Fatalf("\"null\" should contribute no filter: %v", *q.Status)
	}
	if q.MovieID != nil {
		t.Fatalf("\"undefined\" should contribute no filter: %v", *q.MovieID)
	}
	if q.Email != nil || q.UserID != nil {
		t.Fatalf("blank values should contribute no filter")
	}
}

func TestBuildListQuery_IDAliases(t *testing.T) {
	values, _ := url.ParseQuery("booking_id=b-3")
	q := buildListQuery(values)
	if q.ID == nil || *q.ID != "b-3" {
		t.Fatalf("booking_id alias not honored: %+v", q.ID)
	}

	// id wins over the aliases when more than one is present.
	values, _ = url.ParseQuery("id=b-1&_id=b-2&booking_id=b-3")
	q = buildListQuery(values)
	if q.ID == nil || *q.ID != "b-1" {
		t.Fatalf("id precedence broken: %+v", q.ID)
	}

	values, _ = url.ParseQuery("id=null&_id=b-2")
	q = buildListQuery(values)
	if q.ID == nil || *q.ID != "b-2" {
		t.Fatalf("blank id should fall through to _id: %+v", q.ID)
	}
}

func TestBuildListQuery_InvalidDatesDropped(t *testing.T) {
	values, _ := url.ParseQuery("date_from=mañana&date_to=not-a-date")
	q := buildListQuery(values)
	if q.DateFrom != nil || q.DateTo != nil {
		t.Fatalf("unparseable dates should contribute no filter: %+v %+v", q.DateFrom, q.DateTo)
	}
}

func TestBuildListQuery_SortFallback(t *testing.T) {
	values, _ := url.ParseQuery("sort=-no_such_field")
	q := buildListQuery(values)
	if q.Sort != repository.DefaultSort {
		t.Fatalf("unknown sort key should fall back to default: %+v", q.Sort)
	}

	values, _ = url.ParseQuery("sort=price_total")
	q = buildListQuery(values)
	if q.Sort.Field != "price_total" || q.Sort.Desc {
		t.Fatalf("ascending sort parse failed: %+v", q.Sort)
	}
}

func TestBuildListQuery_LimitAndPageFallbacks(t *testing.T) {
	cases := []struct {
		raw       string
		wantLimit int
		wantPage  int
	}{
		{"", repository.DefaultLimit, 1},
		{"limit=abc&page=xyz", repository.DefaultLimit, 1},
		{"limit=0&page=0", repository.DefaultLimit, 1},
		{"limit=-5&page=-2", repository.DefaultLimit, 1},
		{"limit=1000", repository.MaxLimit, 1},
		{"limit=200&page=7", repository.MaxLimit, 7},
		{"limit=1&page=1", 1, 1},
	}
	for _, c := range cases {
		values, _ := url.ParseQuery(c.raw)
		q := buildListQuery(values)
		if q.Limit != c.wantLimit || q.Page != c.wantPage {
			t.Fatalf("buildListQuery(%q) = limit %d page %d, want limit %d page %d",
				c.raw, q.Limit, q.Page, c.wantLimit, c.wantPage)
		}
	}
}

func TestFlatRequested(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"flat=true", true},
		{"flat=1", true},
		{"flat=false", false},
		{"flat=yes", false},
		{"flat=null", false},
		{"", false},
	}
	for _, c := range cases {
		values, _ := url.ParseQuery(c.raw)
		if got := flatRequested(values); got != c.want {
			t.Fatalf("flatRequested(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}
