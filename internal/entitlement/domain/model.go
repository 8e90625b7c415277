// Package domain defines the layered entitlement verdict. A verdict is
// computed from up to four data sources consulted in fixed priority order;
// the first decisive source wins.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrInvalidPlan = errors.New("invalid_plan")

// Plan is a recurring entitlement category.
type Plan string

const (
	PlanService    Plan = "service"
	PlanMentorship Plan = "mentorship"
)

// NormalizePlan coerces caller input to a supported plan. Anything that is
// not "mentorship" resolves to the service plan, matching how the stored
// field names were always derived.
func NormalizePlan(raw string) Plan {
	if Plan(strings.TrimSpace(raw)) == PlanMentorship {
		return PlanMentorship
	}
	return PlanService
}

// State is the normalized entitlement state.
type State string

const (
	StateBlocked  State = "blocked"
	StateActive   State = "active"
	StateGrace    State = "grace"
	StateOverdue  State = "overdue"
	StateInactive State = "inactive"
)

// Verdict is the resolver's single normalized answer to "can this user use
// this plan right now".
type Verdict struct {
	Active   bool       `json:"active"`
	State    State      `json:"state"`
	LastPaid *time.Time `json:"last_paid,omitempty"`
	DueAt    *time.Time `json:"due_at,omitempty"`
	Reason   string     `json:"reason"`
}

type Service interface {
	// Resolve never fails; a missing user or store error yields a definitive
	// inactive verdict.
	Resolve(ctx context.Context, userID string, plan Plan) Verdict
	// MarkPlanActive extends the plan window to now + days. It is the write
	// path used by billing success callbacks, not by Resolve.
	MarkPlanActive(ctx context.Context, userID string, plan Plan, days int) error
}
