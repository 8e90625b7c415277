package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/futautah-hue/balo-website/internal/clock"
	notificationdomain "github.com/futautah-hue/balo-website/internal/notification/domain"
	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"github.com/futautah-hue/balo-website/internal/recordstore/memory"
	"go.uber.org/zap"
)

func newNotificationService(t *testing.T) (notificationdomain.Service, *memory.Store) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	store := memory.New()
	svc := NewService(ServiceParam{
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		GenID: node,
		Store: store,
	})
	return svc, store
}

func TestAddAndList(t *testing.T) {
	svc, _ := newNotificationService(t)
	ctx := context.Background()

	err := svc.Add(ctx, "u1", notificationdomain.Notification{
		Type:    "booking_confirmed",
		Message: "Your service booking bk_1 is confirmed.",
		Meta:    map[string]any{"booking_id": "bk_1"},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := svc.Add(ctx, "u1", notificationdomain.Notification{Type: "system", Message: "Welcome"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	resp, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(resp.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(resp.Notifications))
	}
	if resp.UnreadCount != 2 {
		t.Errorf("expected 2 unread, got %d", resp.UnreadCount)
	}

	first := resp.Notifications[0]
	if first.ID == "" {
		t.Error("notification ID not assigned")
	}
	if first.Time.IsZero() {
		t.Error("notification time not assigned")
	}
	if first.Meta["booking_id"] != "bk_1" {
		t.Errorf("meta not preserved: %v", first.Meta)
	}
}

func TestAddRejectsEmptyMessage(t *testing.T) {
	svc, _ := newNotificationService(t)

	err := svc.Add(context.Background(), "u1", notificationdomain.Notification{Type: "system"})
	if !errors.Is(err, notificationdomain.ErrInvalidNotification) {
		t.Fatalf("expected ErrInvalidNotification, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, _ := newNotificationService(t)
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three"} {
		if err := svc.Add(ctx, "u1", notificationdomain.Notification{Type: "system", Message: msg}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if err := svc.MarkAllRead(ctx, "u1"); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}

	resp, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.UnreadCount != 0 {
		t.Errorf("expected 0 unread after MarkAllRead, got %d", resp.UnreadCount)
	}

	// A feed with nothing unread is a no-op, not an error.
	if err := svc.MarkAllRead(ctx, "u1"); err != nil {
		t.Errorf("MarkAllRead on read feed failed: %v", err)
	}
}

func TestDeleteByKeyOrIDField(t *testing.T) {
	svc, store := newNotificationService(t)
	ctx := context.Background()

	// Legacy shape: numeric keys, identity in the id field.
	err := store.Put(ctx, "u1", notificationsSet, recorddomain.Collection{
		{Key: "0", Fields: map[string]any{"id": "n_9", "message": "legacy", "read": false}},
		{Key: "n_10", Fields: map[string]any{"message": "keyed", "read": false}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Delete(ctx, "u1", "n_9"); err != nil {
		t.Fatalf("delete by id field failed: %v", err)
	}
	if err := svc.Delete(ctx, "u1", "n_10"); err != nil {
		t.Fatalf("delete by key failed: %v", err)
	}

	resp, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(resp.Notifications) != 0 {
		t.Errorf("expected empty feed, got %d entries", len(resp.Notifications))
	}

	if err := svc.Delete(ctx, "u1", "n_404"); !errors.Is(err, notificationdomain.ErrNotificationNotFound) {
		t.Errorf("expected ErrNotificationNotFound, got %v", err)
	}
}
