package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeCreate_DefaultsCreatedAt(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	doc, err := NormalizeCreate(Document{"_id": "b-1"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "2024-03-15T10:30:00.000Z"
	if doc["created_at"] != want {
		t.Fatalf("created_at = %v, want %s", doc["created_at"], want)
	}
}

func TestNormalizeCreate_ReformatsCreatedAt(t *testing.T) {
	doc, err := NormalizeCreate(Document{"_id": "b-1", "created_at": "2020-01-01"}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["created_at"] != "2020-01-01T00:00:00.000Z" {
		t.Fatalf("created_at = %v, want reformatted ISO string", doc["created_at"])
	}
}

func TestNormalizeCreate_UnparseableCreatedAtKeptVerbatim(t *testing.T) {
	doc, err := NormalizeCreate(Document{"_id": "b-1", "created_at": "no es fecha"}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["created_at"] != "no es fecha" {
		t.Fatalf("created_at = %v, want verbatim input", doc["created_at"])
	}
}

func TestNormalizeCreate_Coercions(t *testing.T) {
	doc, err := NormalizeCreate(Document{
		"_id":         float64(42),
		"showtime_id": float64(7),
		"sala_number": "5",
		"price_total": "20.5",
		"seats":       map[string]any{"row": "A", "number": float64(1)},
		"user": map[string]any{
			"user_id": float64(9),
			"email":   "User@X.com",
			"name":    "Ana",
		},
	}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc["_id"] != "42" {
		t.Fatalf("_id = %v (%T), want \"42\"", doc["_id"], doc["_id"])
	}
	if doc["showtime_id"] != "7" {
		t.Fatalf("showtime_id = %v, want \"7\"", doc["showtime_id"])
	}
	if doc["sala_number"] != float64(5) {
		t.Fatalf("sala_number = %v (%T), want 5", doc["sala_number"], doc["sala_number"])
	}
	if doc["price_total"] != 20.5 {
		t.Fatalf("price_total = %v, want 20.5", doc["price_total"])
	}

	seats, ok := doc["seats"].([]any)
	if !ok || len(seats) != 1 {
		t.Fatalf("seats = %v, want single-element sequence", doc["seats"])
	}

	user, ok := doc["user"].(map[string]any)
	if !ok {
		t.Fatalf("user = %v, want object", doc["user"])
	}
	if user["user_id"] != "9" {
		t.Fatalf("user.user_id = %v, want \"9\"", user["user_id"])
	}
	if user["email"] != "User@X.com" {
		t.Fatalf("user.email = %v, want original casing preserved", user["email"])
	}
}

func TestNormalizeCreate_InvalidStatus(t *testing.T) {
	_, err := NormalizeCreate(Document{"_id": "b-1", "status": "BOGUS"}, time.Now())
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNormalizeRejectsNullStatus(t *testing.T) {
	var vErr *ValidationError
	if _, err := NormalizeCreate(Document{"_id": "b-1", "status": nil}, time.Now()); !errors.As(err, &vErr) {
		t.Fatalf("create with status=null: expected ValidationError, got %v", err)
	}
	if _, err := NormalizeUpdate(Document{"status": nil}); !errors.As(err, &vErr) {
		t.Fatalf("update with status=null: expected ValidationError, got %v", err)
	}

	// An absent key is not a status write.
	if _, err := NormalizeUpdate(Document{"price_total": float64(10)}); err != nil {
		t.Fatalf("update without status rejected: %v", err)
	}
}

func TestNormalizeCreate_ValidStatus(t *testing.T) {
	for _, status := range AllowedStatuses {
		doc, err := NormalizeCreate(Document{"_id": "b-1", "status": status}, time.Now())
		if err != nil {
			t.Fatalf("status %s rejected: %v", status, err)
		}
		if doc["status"] != status {
			t.Fatalf("status = %v, want %s", doc["status"], status)
		}
	}
}

func TestNormalizeUpdate(t *testing.T) {
	set, err := NormalizeUpdate(Document{
		"price_total": "15",
		"seats":       map[string]any{"row": "B", "number": float64(3)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set["price_total"] != float64(15) {
		t.Fatalf("price_total = %v, want 15", set["price_total"])
	}
	if _, ok := set["seats"].([]any); !ok {
		t.Fatalf("seats not wrapped: %v", set["seats"])
	}

	if _, err := NormalizeUpdate(Document{"status": "NOPE"}); err == nil {
		t.Fatalf("expected error for invalid status")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  time.Time
		ok    bool
	}{
		{"rfc3339", "2020-06-01T12:00:00Z", time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC), true},
		{"date-only", "2020-06-01", time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"epoch-millis", float64(1591012800000), time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC), true},
		{"garbage", "mañana", time.Time{}, false},
		{"blank", "", time.Time{}, false},
		{"nil", nil, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseTime(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("ParseTime(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
