package service

import (
	"context"
	"testing"
	"time"

	"github.com/futautah-hue/balo-website/internal/clock"
	"github.com/futautah-hue/balo-website/internal/config"
	entitlementdomain "github.com/futautah-hue/balo-website/internal/entitlement/domain"
	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"github.com/futautah-hue/balo-website/internal/recordstore/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newResolver(t *testing.T) (entitlementdomain.Service, *memory.Store, *clock.FakeClock) {
	t.Helper()

	store := memory.New()
	fake := clock.NewFakeClock(testNow)
	svc := NewService(ServiceParam{
		Log:     zap.NewNop(),
		Clock:   fake,
		Store:   store,
		PlanCfg: config.NewStaticPlanConfigHolder(config.PlanConfig{WindowDays: 31, GraceDays: 3}),
	})
	return svc, store, fake
}

func putPlanFields(t *testing.T, store *memory.Store, userID string, records ...recorddomain.Record) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), userID, planFieldsSet, recorddomain.Collection(records)))
}

func putPayments(t *testing.T, store *memory.Store, userID string, records ...recorddomain.Record) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), userID, paymentsSet, recorddomain.Collection(records)))
}

func field(key string, value any) recorddomain.Record {
	return recorddomain.Record{Key: key, Fields: map[string]any{"value": value}}
}

func TestResolveNoUser(t *testing.T) {
	svc, _, _ := newResolver(t)

	verdict := svc.Resolve(context.Background(), "", entitlementdomain.PlanService)
	require.False(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateInactive, verdict.State)
	require.Equal(t, "No user", verdict.Reason)
}

func TestResolveBlockOverridesEverything(t *testing.T) {
	svc, store, _ := newResolver(t)
	putPlanFields(t, store, "u1",
		field("balo_block_service", true),
		// Paid well into the future; the block still wins.
		field("service_plan_due", testNow.AddDate(0, 0, 20).Unix()),
		field("service_subscription", true),
	)

	verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanService)
	require.False(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateBlocked, verdict.State)
	require.Equal(t, "Blocked by admin", verdict.Reason)
}

func TestResolvePlanWindowBoundaries(t *testing.T) {
	cases := []struct {
		name       string
		due        time.Time
		wantState  entitlementdomain.State
		wantActive bool
	}{
		{"due exactly now", testNow, entitlementdomain.StateActive, true},
		{"due one second ago", testNow.Add(-time.Second), entitlementdomain.StateGrace, true},
		{"grace boundary inclusive", testNow.AddDate(0, 0, -3), entitlementdomain.StateGrace, true},
		{"past grace", testNow.AddDate(0, 0, -3).Add(-time.Second), entitlementdomain.StateOverdue, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _ := newResolver(t)
			putPlanFields(t, store, "u1", field("service_plan_due", tc.due.Unix()))

			verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanService)
			require.Equal(t, tc.wantState, verdict.State)
			require.Equal(t, tc.wantActive, verdict.Active)
			require.NotNil(t, verdict.DueAt)
			require.Equal(t, tc.due.Unix(), verdict.DueAt.Unix())
		})
	}
}

func TestResolveHubRecordIsDecisive(t *testing.T) {
	svc, store, _ := newResolver(t)
	nextDue := testNow.AddDate(0, 0, 14)
	putPlanFields(t, store, "u1",
		recorddomain.Record{Key: "balo_plan_mentorship", Fields: map[string]any{
			"state":    "active",
			"active":   true,
			"next_due": nextDue.Unix(),
		}},
		// A manual flag lower in the chain must not be consulted.
		field("mentorship_subscription", true),
	)

	verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanMentorship)
	require.True(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateActive, verdict.State)
	require.Equal(t, "From plan meta (Hub webhooks)", verdict.Reason)
	require.NotNil(t, verdict.DueAt)
	require.Equal(t, nextDue.Unix(), verdict.DueAt.Unix())
}

func TestResolveHubBlockedStateNeverActive(t *testing.T) {
	svc, store, _ := newResolver(t)
	putPlanFields(t, store, "u1",
		recorddomain.Record{Key: "balo_plan_service", Fields: map[string]any{
			"state":  "blocked",
			"active": true,
		}},
	)

	verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanService)
	require.False(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateBlocked, verdict.State)
}

func TestResolveManualFlag(t *testing.T) {
	svc, store, _ := newResolver(t)
	putPlanFields(t, store, "u1", field("service_subscription", true))

	verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanService)
	require.True(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateActive, verdict.State)
	require.Equal(t, "Manual subscription flag active", verdict.Reason)
	require.Nil(t, verdict.DueAt)
}

func TestResolvePaymentFallbackOverdue(t *testing.T) {
	svc, store, _ := newResolver(t)
	paid := testNow.AddDate(0, 0, -40)
	putPayments(t, store, "u1", recorddomain.Record{
		Key: "pay_1",
		Fields: map[string]any{
			"kind":      "subscription",
			"status":    "paid",
			"booked_at": paid.Unix(),
		},
	})

	verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanService)
	require.False(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateOverdue, verdict.State)
	require.NotNil(t, verdict.LastPaid)
	require.Equal(t, paid.Unix(), verdict.LastPaid.Unix())
	require.NotNil(t, verdict.DueAt)
	require.Equal(t, paid.AddDate(0, 0, 31).Unix(), verdict.DueAt.Unix())
}

func TestResolvePaymentFallbackPicksMostRecent(t *testing.T) {
	svc, store, _ := newResolver(t)
	old := testNow.AddDate(0, 0, -60)
	recent := testNow.AddDate(0, 0, -10)
	putPayments(t, store, "u1",
		recorddomain.Record{Key: "pay_1", Fields: map[string]any{
			"kind": "service_subscription", "status": "completed", "booked_at": old.Unix(),
		}},
		recorddomain.Record{Key: "pay_2", Fields: map[string]any{
			"kind": "subscription_service", "status": "confirmed", "booked_at": recent.Unix(),
		}},
		// Wrong kind and status are skipped regardless of recency.
		recorddomain.Record{Key: "pay_3", Fields: map[string]any{
			"kind": "one_off", "status": "paid", "booked_at": testNow.Unix(),
		}},
		recorddomain.Record{Key: "pay_4", Fields: map[string]any{
			"kind": "subscription", "status": "refunded", "booked_at": testNow.Unix(),
		}},
	)

	verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanService)
	require.True(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateActive, verdict.State)
	require.Equal(t, recent.Unix(), verdict.LastPaid.Unix())
}

func TestResolveNoSources(t *testing.T) {
	svc, _, _ := newResolver(t)

	verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanService)
	require.False(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateInactive, verdict.State)
	require.Equal(t, "No subscription payment found", verdict.Reason)
}

func TestMarkPlanActive(t *testing.T) {
	svc, store, _ := newResolver(t)

	require.NoError(t, svc.MarkPlanActive(context.Background(), "u1", entitlementdomain.PlanService, 30))

	fields, err := store.Get(context.Background(), "u1", planFieldsSet)
	require.NoError(t, err)

	due, ok := fields.FindRecord("service_plan_due")
	require.True(t, ok)
	dueUnix, _ := due.Int64("value")
	require.Equal(t, testNow.AddDate(0, 0, 30).Unix(), dueUnix)

	set, ok := fields.FindRecord("service_plan_last_set")
	require.True(t, ok)
	setUnix, _ := set.Int64("value")
	require.Equal(t, testNow.Unix(), setUnix)

	// The window field now drives the verdict.
	verdict := svc.Resolve(context.Background(), "u1", entitlementdomain.PlanService)
	require.True(t, verdict.Active)
	require.Equal(t, entitlementdomain.StateActive, verdict.State)
}

func TestMarkPlanActiveMinimumOneDay(t *testing.T) {
	svc, store, _ := newResolver(t)

	require.NoError(t, svc.MarkPlanActive(context.Background(), "u1", entitlementdomain.PlanMentorship, -5))

	fields, err := store.Get(context.Background(), "u1", planFieldsSet)
	require.NoError(t, err)

	due, ok := fields.FindRecord("mentorship_plan_due")
	require.True(t, ok)
	dueUnix, _ := due.Int64("value")
	require.Equal(t, testNow.AddDate(0, 0, 1).Unix(), dueUnix)
}
