package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestPickCreatable_DropsUnknownKeys(t *testing.T) {
	doc := PickCreatable(Document{
		"_id":      "b-1",
		"status":   "PENDING",
		"is_admin": true,
		"$where":   "1==1",
	})
	if _, ok := doc["is_admin"]; ok {
		t.Fatalf("unknown key survived the whitelist")
	}
	if _, ok := doc["$where"]; ok {
		t.Fatalf("unknown key survived the whitelist")
	}
	if doc["_id"] != "b-1" || doc["status"] != "PENDING" {
		t.Fatalf("creatable keys dropped: %v", doc)
	}
}

func TestPickMutable(t *testing.T) {
	set := PickMutable(Document{
		"status":      "CONFIRMED",
		"price_total": float64(10),
		"movie_id":    "m-1",
		"created_at":  "2020-01-01",
	})
	if len(set) != 2 {
		t.Fatalf("mutable subset = %v, want status and price_total only", set)
	}
}

func TestEnsureNoImmutable(t *testing.T) {
	err := EnsureNoImmutable(Document{
		"created_at": "2020-01-01",
		"movie_id":   "m-2",
		"status":     "CONFIRMED",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(vErr.Message, "created_at") || !strings.Contains(vErr.Message, "movie_id") {
		t.Fatalf("message should list every immutable key: %s", vErr.Message)
	}
	if strings.Contains(vErr.Message, "status") {
		t.Fatalf("mutable key reported as immutable: %s", vErr.Message)
	}

	if err := EnsureNoImmutable(Document{"status": "PENDING"}); err != nil {
		t.Fatalf("mutable-only payload rejected: %v", err)
	}
}
