package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	bookingConfirmations metric.Int64Counter
	entitlementVerdicts  metric.Int64Counter
	escrowFailures       metric.Int64Counter
	notificationEvents   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "balo"
	}
	meter := provider.Meter(name)

	bookingConfirmations, err := meter.Int64Counter("balo_booking_confirmations_total")
	if err != nil {
		return nil, err
	}
	entitlementVerdicts, err := meter.Int64Counter("balo_entitlement_verdicts_total")
	if err != nil {
		return nil, err
	}
	escrowFailures, err := meter.Int64Counter("balo_escrow_release_failures_total")
	if err != nil {
		return nil, err
	}
	notificationEvents, err := meter.Int64Counter("balo_notification_events_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		bookingConfirmations: bookingConfirmations,
		entitlementVerdicts:  entitlementVerdicts,
		escrowFailures:       escrowFailures,
		notificationEvents:   notificationEvents,
	}, nil
}

// RecordBookingConfirmation increments confirmation counts by stage.
func (m *Metrics) RecordBookingConfirmation(ctx context.Context, kind, stage string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("stage", strings.TrimSpace(stage)),
	)
	m.bookingConfirmations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEntitlementVerdict increments resolver verdict counts.
func (m *Metrics) RecordEntitlementVerdict(ctx context.Context, plan, state, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("plan", strings.TrimSpace(plan)),
		attribute.String("state", strings.TrimSpace(state)),
		attribute.String("source", strings.TrimSpace(source)),
	)
	m.entitlementVerdicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEscrowFailure increments escrow release failure counts.
func (m *Metrics) RecordEscrowFailure(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("kind", strings.TrimSpace(kind)))
	m.escrowFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotificationEvent increments dispatched notification counts.
func (m *Metrics) RecordNotificationEvent(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("event_type", strings.TrimSpace(eventType)))
	m.notificationEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":       {},
	"stage":      {},
	"plan":       {},
	"state":      {},
	"source":     {},
	"event_type": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
