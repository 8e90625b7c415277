package service

import (
	"context"
	"strings"
	"time"

	"github.com/futautah-hue/balo-website/internal/clock"
	"github.com/futautah-hue/balo-website/internal/config"
	entitlementdomain "github.com/futautah-hue/balo-website/internal/entitlement/domain"
	"github.com/futautah-hue/balo-website/internal/observability/metrics"
	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	planFieldsSet = "plan_fields"
	paymentsSet   = "balo_payments"
)

type Service struct {
	log   *zap.Logger
	clock clock.Clock

	store   recorddomain.Store
	planCfg *config.PlanConfigHolder
	metrics *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock

	Store   recorddomain.Store
	PlanCfg *config.PlanConfigHolder
	Metrics *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) entitlementdomain.Service {
	return &Service{
		log:   p.Log.Named("entitlement.service"),
		clock: p.Clock,

		store:   p.Store,
		planCfg: p.PlanCfg,
		metrics: p.Metrics,
	}
}

// Resolve implements domain.Service. Sources are consulted in fixed priority
// order and the first decisive one wins; a store failure is logged and the
// affected sources are treated as absent so the verdict stays definitive.
func (s *Service) Resolve(ctx context.Context, userID string, plan entitlementdomain.Plan) entitlementdomain.Verdict {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return s.record(ctx, plan, "none", entitlementdomain.Verdict{
			State:  entitlementdomain.StateInactive,
			Reason: "No user",
		})
	}

	policy := s.planCfg.Get()
	now := s.clock.Now()

	fields, err := s.store.Get(ctx, userID, planFieldsSet)
	if err != nil {
		s.log.Error("plan fields unavailable", zap.String("user_id", userID), zap.Error(err))
		fields = nil
	}

	// 0) Admin block always wins.
	if rec, ok := fields.FindRecord("balo_block_" + string(plan)); ok && rec.Bool("value") {
		return s.record(ctx, plan, "block", entitlementdomain.Verdict{
			State:  entitlementdomain.StateBlocked,
			Reason: "Blocked by admin",
		})
	}

	// 1) Plan-window field. Decisive whenever a positive due timestamp exists.
	prefix := string(plan) + "_plan"
	if rec, ok := fields.FindRecord(prefix + "_due"); ok {
		if due, ok := rec.Int64("value"); ok && due > 0 {
			dueAt := time.Unix(due, 0).UTC()
			verdict := classifyWindow(now, dueAt, policy.GraceDays, "plan_due meta")
			return s.record(ctx, plan, "plan_due", verdict)
		}
	}

	// 2) Hub status record, maintained by external webhooks. Decisive when it
	// carries a state, regardless of whether that state is active.
	if rec, ok := fields.FindRecord("balo_plan_" + string(plan)); ok && rec.Has("state") {
		state := entitlementdomain.State(rec.String("state"))
		verdict := entitlementdomain.Verdict{
			Active: rec.Bool("active") && state != entitlementdomain.StateBlocked,
			State:  state,
			Reason: "From plan meta (Hub webhooks)",
		}
		if next, ok := rec.Int64("next_due"); ok && next > 0 {
			dueAt := time.Unix(next, 0).UTC()
			verdict.DueAt = &dueAt
		}
		return s.record(ctx, plan, "hub", verdict)
	}

	// 3) Legacy manual flag.
	if rec, ok := fields.FindRecord(string(plan) + "_subscription"); ok && rec.Bool("value") {
		return s.record(ctx, plan, "manual_flag", entitlementdomain.Verdict{
			Active: true,
			State:  entitlementdomain.StateActive,
			Reason: "Manual subscription flag active",
		})
	}

	// 4) Legacy payment ledger fallback.
	lastPaid, found := s.lastQualifyingPayment(ctx, userID, plan)
	if !found {
		return s.record(ctx, plan, "payments", entitlementdomain.Verdict{
			State:  entitlementdomain.StateInactive,
			Reason: "No subscription payment found",
		})
	}

	dueAt := lastPaid.AddDate(0, 0, policy.WindowDays)
	verdict := classifyWindow(now, dueAt, policy.GraceDays, "bookings")
	verdict.LastPaid = &lastPaid
	return s.record(ctx, plan, "payments", verdict)
}

// MarkPlanActive implements domain.Service.
func (s *Service) MarkPlanActive(ctx context.Context, userID string, plan entitlementdomain.Plan, days int) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entitlementdomain.ErrInvalidPlan
	}
	if days < 1 {
		days = 1
	}

	now := s.clock.Now()
	due := now.AddDate(0, 0, days)
	prefix := string(plan) + "_plan"

	fields, err := s.store.Get(ctx, userID, planFieldsSet)
	if err != nil {
		return err
	}

	fields = fields.Upsert(fieldRecord(prefix+"_due", due.Unix()))
	fields = fields.Upsert(fieldRecord(prefix+"_last_set", now.Unix()))

	if err := s.store.Put(ctx, userID, planFieldsSet, fields); err != nil {
		return err
	}

	s.log.Info("plan window extended",
		zap.String("user_id", userID),
		zap.String("plan", string(plan)),
		zap.Int("days", days),
		zap.Time("due_at", due),
	)
	return nil
}

// lastQualifyingPayment scans the payment ledger for the most recent paid
// subscription record matching the plan.
func (s *Service) lastQualifyingPayment(ctx context.Context, userID string, plan entitlementdomain.Plan) (time.Time, bool) {
	payments, err := s.store.Get(ctx, userID, paymentsSet)
	if err != nil {
		s.log.Error("payment ledger unavailable", zap.String("user_id", userID), zap.Error(err))
		return time.Time{}, false
	}

	kinds := map[string]struct{}{
		"subscription":                 {},
		"subscription_" + string(plan): {},
		string(plan) + "_subscription": {},
	}
	statuses := map[string]struct{}{
		"paid":      {},
		"completed": {},
		"confirmed": {},
	}

	var best time.Time
	found := false
	for _, rec := range payments {
		if _, ok := kinds[rec.String("kind")]; !ok {
			continue
		}
		if _, ok := statuses[rec.String("status")]; !ok {
			continue
		}
		bookedAt, ok := paymentTime(rec)
		if !ok {
			continue
		}
		if !found || bookedAt.After(best) {
			best = bookedAt
			found = true
		}
	}
	return best, found
}

func (s *Service) record(ctx context.Context, plan entitlementdomain.Plan, source string, verdict entitlementdomain.Verdict) entitlementdomain.Verdict {
	s.metrics.RecordEntitlementVerdict(ctx, string(plan), string(verdict.State), source)
	return verdict
}

// classifyWindow applies the shared active/grace/overdue policy. Boundaries
// are inclusive on both the due date and the grace cutoff.
func classifyWindow(now, dueAt time.Time, graceDays int, source string) entitlementdomain.Verdict {
	graceUntil := dueAt.AddDate(0, 0, graceDays)
	due := dueAt

	switch {
	case !now.After(due):
		return entitlementdomain.Verdict{
			Active: true,
			State:  entitlementdomain.StateActive,
			DueAt:  &due,
			Reason: "Within paid window (" + source + ")",
		}
	case !now.After(graceUntil):
		return entitlementdomain.Verdict{
			Active: true,
			State:  entitlementdomain.StateGrace,
			DueAt:  &due,
			Reason: "Within grace period (" + source + ")",
		}
	default:
		return entitlementdomain.Verdict{
			Active: false,
			State:  entitlementdomain.StateOverdue,
			DueAt:  &due,
			Reason: "Past grace period (" + source + ")",
		}
	}
}

// paymentTime reads the booked_at field, accepting unix seconds or an
// RFC 3339 / SQL datetime string from older writers.
func paymentTime(rec recorddomain.Record) (time.Time, bool) {
	if unix, ok := rec.Int64("booked_at"); ok && unix > 0 {
		return time.Unix(unix, 0).UTC(), true
	}
	raw := strings.TrimSpace(rec.String("booked_at"))
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func fieldRecord(key string, value any) recorddomain.Record {
	return recorddomain.Record{
		Key:    key,
		Fields: map[string]any{"value": value},
	}
}
