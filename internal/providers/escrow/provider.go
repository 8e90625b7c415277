// Package escrow integrates the external escrow settlement service. Release
// is best-effort: the booking engine logs failures and never rolls back a
// completed booking because of one.
package escrow

import (
	"context"

	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"go.uber.org/zap"
)

// Provider releases escrowed funds for a fully completed booking.
type Provider interface {
	Release(ctx context.Context, bookingID, kind string, record recorddomain.Record) error
}

// NoOpProvider logs releases instead of performing them. Used when no escrow
// endpoint is configured.
type NoOpProvider struct {
	log *zap.Logger
}

func NewNoOpProvider(log *zap.Logger) *NoOpProvider {
	return &NoOpProvider{log: log.Named("escrow.noop")}
}

func (p *NoOpProvider) Release(ctx context.Context, bookingID, kind string, record recorddomain.Record) error {
	_ = ctx
	_ = record
	p.log.Info("escrow release skipped, no endpoint configured",
		zap.String("booking_id", bookingID),
		zap.String("kind", kind),
	)
	return nil
}
