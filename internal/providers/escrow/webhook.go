package escrow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"go.uber.org/zap"
)

// WebhookProvider posts release requests to the escrow service endpoint.
type WebhookProvider struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

func NewWebhookProvider(endpoint string, log *zap.Logger) *WebhookProvider {
	return &WebhookProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.Named("escrow.webhook"),
	}
}

type releaseRequest struct {
	BookingID string         `json:"booking_id"`
	Kind      string         `json:"kind"`
	Record    map[string]any `json:"record"`
}

func (p *WebhookProvider) Release(ctx context.Context, bookingID, kind string, record recorddomain.Record) error {
	payload, err := json.Marshal(releaseRequest{
		BookingID: bookingID,
		Kind:      kind,
		Record:    record.Fields,
	})
	if err != nil {
		return fmt.Errorf("encode escrow release: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build escrow release request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post escrow release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("escrow release rejected with status %d", resp.StatusCode)
	}

	p.log.Debug("escrow release accepted",
		zap.String("booking_id", bookingID),
		zap.String("kind", kind),
	)
	return nil
}
