// Package domain defines the per-user notification feed and the booking
// lifecycle events that feed it.
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidNotification  = errors.New("invalid_notification")
	ErrNotificationNotFound = errors.New("notification_not_found")
)

// Notification is one entry in a user's notification feed.
type Notification struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
	Time    time.Time      `json:"time"`
	Read    bool           `json:"read"`
}

// BookingConfirmedEvent is emitted when a booking reaches full completion.
// The booking engine never formats messages itself; consumers render and
// deliver.
type BookingConfirmedEvent struct {
	ProviderID string  `json:"provider_id"`
	StudentID  string  `json:"student_id"`
	BookingID  string  `json:"booking_id"`
	Kind       string  `json:"kind"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Gateway    string  `json:"gateway"`
}

// Publisher accepts events for asynchronous delivery. Publish never blocks
// the caller's transaction; a full queue drops the event with a log line.
type Publisher interface {
	Publish(ctx context.Context, event BookingConfirmedEvent)
}

// Profile is the minimal directory view needed to address a user.
type Profile struct {
	Email       string
	DisplayName string
}

// Directory resolves user contact details for delivery.
type Directory interface {
	Lookup(ctx context.Context, userID string) (Profile, bool)
}

type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

type Service interface {
	List(ctx context.Context, userID string) (ListResponse, error)
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
	Add(ctx context.Context, userID string, notification Notification) error
}
