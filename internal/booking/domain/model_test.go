package domain

import (
	"testing"
	"time"

	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
)

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("service"); !ok || k != KindService {
		t.Errorf("ParseKind(service) = %v, %v", k, ok)
	}
	if k, ok := ParseKind(" mentorship "); !ok || k != KindMentorship {
		t.Errorf("ParseKind with spaces = %v, %v", k, ok)
	}
	if _, ok := ParseKind("massage"); ok {
		t.Error("ParseKind should reject unsupported kinds")
	}
}

func TestDecodeBookingNormalization(t *testing.T) {
	confirmedAt := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	rec := recorddomain.Record{
		Key: "stored_key",
		Fields: map[string]any{
			"booking_id":         "bk_1",
			"provider_id":        float64(17),
			"client_id":          "cli_1",
			"provider_confirmed": float64(confirmedAt.Unix()),
			"status":             "awaiting_other",
			"amount":             "49.90",
			"currency":           "GBP",
			"gateway":            "stripe",
		},
	}

	b, ok := DecodeBooking(rec)
	if !ok {
		t.Fatal("DecodeBooking rejected well-formed record")
	}
	if b.ID != "bk_1" {
		t.Errorf("id field should win over collection key, got %q", b.ID)
	}
	if b.ProviderID != "17" || b.ClientID != "cli_1" {
		t.Errorf("party ids: %q / %q", b.ProviderID, b.ClientID)
	}
	if b.ProviderConfirmed == nil || !b.ProviderConfirmed.Equal(confirmedAt) {
		t.Errorf("provider confirmation time: %v", b.ProviderConfirmed)
	}
	if b.ClientConfirmed != nil {
		t.Error("client confirmation should be absent")
	}
	if b.Amount != 49.90 {
		t.Errorf("amount: %v", b.Amount)
	}
}

func TestDecodeBookingMalformed(t *testing.T) {
	if _, ok := DecodeBooking(recorddomain.Record{Key: "bk_1"}); ok {
		t.Error("record without fields should be rejected")
	}
}

func TestDecodeBookingKeyIdentityFallback(t *testing.T) {
	b, ok := DecodeBooking(recorddomain.Record{Key: "bk_5", Fields: map[string]any{"status": ""}})
	if !ok || b.ID != "bk_5" {
		t.Errorf("collection key should serve as identity, got %q", b.ID)
	}
}

func TestBookingWriteBackPreservesUnknownFields(t *testing.T) {
	rec := recorddomain.Record{Key: "bk_1", Fields: map[string]any{
		"booking_id": "bk_1",
		"notes":      "bring racket",
	}}

	b, _ := DecodeBooking(rec)
	b.SetProviderConfirmed(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	b.SetStatus(StatusAwaitingOther)

	out := b.Encode()
	if out.String("notes") != "bring racket" {
		t.Error("unrecognized field lost on write-back")
	}
	if !out.Bool("provider_confirmed") || out.String("status") != "awaiting_other" {
		t.Errorf("mutations missing on write-back: %v", out.Fields)
	}
}

func TestRoleOf(t *testing.T) {
	b, _ := DecodeBooking(recorddomain.Record{Key: "bk_1", Fields: map[string]any{
		"provider_id": "p1",
		"client_id":   "c1",
	}})

	if b.RoleOf("p1") != RoleProvider {
		t.Error("provider not recognized")
	}
	if b.RoleOf("c1") != RoleClient {
		t.Error("client not recognized")
	}
	if b.RoleOf("stranger") != RoleUnknown {
		t.Error("non-party should be unknown")
	}
}

// Key matches take priority over id-field matches; within each pass the
// first record in collection order wins.
func TestFindBookingTieBreak(t *testing.T) {
	collection := recorddomain.Collection{
		{Key: "x", Fields: map[string]any{"booking_id": "bk_1"}},
		{Key: "bk_1", Fields: map[string]any{"booking_id": "other"}},
	}

	idx, ok := FindBooking(collection, "bk_1")
	if !ok || idx != 1 {
		t.Errorf("key match should win, got idx=%d ok=%v", idx, ok)
	}

	idx, ok = FindBooking(collection, "other")
	if !ok || idx != 1 {
		t.Errorf("field match: idx=%d ok=%v", idx, ok)
	}

	if _, ok := FindBooking(collection, "missing"); ok {
		t.Error("missing id should not match")
	}
}
