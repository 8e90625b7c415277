package repository

import (
	"context"
	"testing"

	"github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) domain.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Provide(db)
}

func TestGetMissingSetReturnsNil(t *testing.T) {
	store := newTestStore(t)

	collection, err := store.Get(context.Background(), "u1", "service_bookings")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if collection != nil {
		t.Errorf("expected nil collection for missing set, got %v", collection)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := domain.Collection{
		{Key: "bk_1", Fields: map[string]any{"status": "awaiting_other", "amount": 12.5}},
		{Key: "bk_2", Fields: map[string]any{"provider_id": "p1"}},
	}
	if err := store.Put(ctx, "u1", "service_bookings", in); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	out, err := store.Get(ctx, "u1", "service_bookings")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Key != "bk_1" || out[1].Key != "bk_2" {
		t.Error("collection order not preserved")
	}
	if out[0].String("status") != "awaiting_other" {
		t.Errorf("field lost in round trip: %v", out[0].Fields)
	}
}

func TestPutReplacesWholeCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := domain.Collection{{Key: "a", Fields: map[string]any{"v": 1}}}
	second := domain.Collection{{Key: "b", Fields: map[string]any{"v": 2}}}

	if err := store.Put(ctx, "u1", "plan_fields", first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "u1", "plan_fields", second); err != nil {
		t.Fatalf("replace Put failed: %v", err)
	}

	out, err := store.Get(ctx, "u1", "plan_fields")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(out) != 1 || out[0].Key != "b" {
		t.Errorf("Put is not a full replace: %v", out)
	}
}

func TestSetsAreIsolatedPerUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "u1", "plan_fields", domain.Collection{{Key: "a", Fields: map[string]any{"v": 1}}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	out, err := store.Get(ctx, "u2", "plan_fields")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != nil {
		t.Errorf("u2 sees u1 records: %v", out)
	}
}
