// Package domain defines the dual-confirmation booking model. A booking is
// completed only after both parties independently confirm it.
package domain

import (
	"strings"
	"time"

	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
)

// Kind is the booking category.
type Kind string

const (
	KindService    Kind = "service"
	KindMentorship Kind = "mentorship"
)

// ParseKind validates a caller-supplied kind.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.TrimSpace(raw)) {
	case KindService:
		return KindService, true
	case KindMentorship:
		return KindMentorship, true
	default:
		return "", false
	}
}

// CollectionName is the record set holding bookings of this kind.
func (k Kind) CollectionName() string {
	if k == KindMentorship {
		return "mentorship_bookings"
	}
	return "service_bookings"
}

// Status is the stored completion status of a booking.
type Status string

const (
	StatusNone          Status = ""
	StatusAwaitingOther Status = "awaiting_other"
	StatusCompleted     Status = "completed"
)

// Stage is the outcome of one confirmation attempt.
type Stage string

const (
	StageSelfConfirmed    Stage = "self_confirmed"
	StageFullyCompleted   Stage = "fully_completed"
	StageAlreadyCompleted Stage = "already_completed"
)

// Role is the confirming party's relationship to the booking.
type Role string

const (
	RoleProvider Role = "provider"
	RoleClient   Role = "client"
	RoleUnknown  Role = "unknown"
)

// Booking is the canonical in-memory view of one stored booking record.
// Stored records come in two shapes (identity in the collection key or in a
// booking_id field) and are normalized once at load; the raw record is kept
// so unrecognized fields survive the write-back untouched.
type Booking struct {
	ID                string
	ProviderID        string
	ClientID          string
	ProviderConfirmed *time.Time
	ClientConfirmed   *time.Time
	Status            Status

	Amount   float64
	Currency string
	Gateway  string

	rec recorddomain.Record
}

// DecodeBooking normalizes a stored record into a Booking. A record with no
// field map is malformed and cannot be confirmed.
func DecodeBooking(rec recorddomain.Record) (Booking, bool) {
	if rec.Fields == nil {
		return Booking{}, false
	}

	b := Booking{
		ID:       rec.Key,
		Status:   Status(rec.String("status")),
		Currency: rec.String("currency"),
		Gateway:  rec.String("gateway"),
		rec:      rec,
	}
	if id := rec.String("booking_id"); id != "" {
		b.ID = id
	}
	if rec.Bool("provider_id") {
		b.ProviderID = rec.String("provider_id")
	}
	if rec.Bool("client_id") {
		b.ClientID = rec.String("client_id")
	}
	if amount, ok := rec.Float64("amount"); ok {
		b.Amount = amount
	}
	b.ProviderConfirmed = confirmedAt(rec, "provider_confirmed")
	b.ClientConfirmed = confirmedAt(rec, "client_confirmed")
	return b, true
}

// confirmedAt treats any truthy value as confirmed; numeric values are the
// confirmation time in unix seconds.
func confirmedAt(rec recorddomain.Record, field string) *time.Time {
	if !rec.Bool(field) {
		return nil
	}
	if unix, ok := rec.Int64(field); ok && unix > 0 {
		t := time.Unix(unix, 0).UTC()
		return &t
	}
	t := time.Unix(0, 0).UTC()
	return &t
}

// RoleOf determines the caller's role. Legacy bookings without party ids
// yield RoleUnknown.
func (b Booking) RoleOf(userID string) Role {
	switch {
	case b.ProviderID != "" && b.ProviderID == userID:
		return RoleProvider
	case b.ClientID != "" && b.ClientID == userID:
		return RoleClient
	default:
		return RoleUnknown
	}
}

// SetProviderConfirmed records the provider-side confirmation time.
func (b *Booking) SetProviderConfirmed(at time.Time) {
	at = at.UTC()
	b.ProviderConfirmed = &at
	b.rec.Set("provider_confirmed", at.Unix())
}

// SetClientConfirmed records the client-side confirmation time.
func (b *Booking) SetClientConfirmed(at time.Time) {
	at = at.UTC()
	b.ClientConfirmed = &at
	b.rec.Set("client_confirmed", at.Unix())
}

// SetStatus updates the stored completion status.
func (b *Booking) SetStatus(status Status) {
	b.Status = status
	b.rec.Set("status", string(status))
}

// Encode returns the stored record with the booking's mutations applied.
func (b Booking) Encode() recorddomain.Record {
	return b.rec
}

// FindBooking locates a booking by exact collection key, else by the first
// record in collection order whose booking_id field matches stringwise.
func FindBooking(collection recorddomain.Collection, bookingID string) (int, bool) {
	if i, ok := collection.FindKey(bookingID); ok {
		return i, true
	}
	for i := range collection {
		if collection[i].Bool("booking_id") && collection[i].String("booking_id") == bookingID {
			return i, true
		}
	}
	return -1, false
}
