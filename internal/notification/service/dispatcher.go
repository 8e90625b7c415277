package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/futautah-hue/balo-website/internal/config"
	notificationdomain "github.com/futautah-hue/balo-website/internal/notification/domain"
	"github.com/futautah-hue/balo-website/internal/observability/metrics"
	"github.com/futautah-hue/balo-website/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	dispatchQueueSize   = 256
	dispatchTimeout     = 30 * time.Second
	eventTypeBooking    = "booking_confirmed"
	fallbackDisplayName = "A member"
)

// Dispatcher consumes booking lifecycle events off a buffered queue and
// fans them out to email delivery and the notification feed. Delivery is
// at-least-once best-effort; a failure never reaches the booking engine.
type Dispatcher struct {
	log     *zap.Logger
	queue   chan notificationdomain.BookingConfirmedEvent
	email   email.Provider
	notes   notificationdomain.Service
	users   notificationdomain.Directory
	site    config.EmailConfig
	metrics *metrics.Metrics

	done chan struct{}
}

type DispatcherParam struct {
	fx.In

	Log   *zap.Logger
	Email email.Provider
	Notes notificationdomain.Service
	Users notificationdomain.Directory
	Cfg   config.Config

	Metrics *metrics.Metrics `optional:"true"`
}

func NewDispatcher(lc fx.Lifecycle, p DispatcherParam) *Dispatcher {
	d := &Dispatcher{
		log:     p.Log.Named("notification.dispatcher"),
		queue:   make(chan notificationdomain.BookingConfirmedEvent, dispatchQueueSize),
		email:   p.Email,
		notes:   p.Notes,
		users:   p.Users,
		site:    p.Cfg.Email,
		metrics: p.Metrics,
		done:    make(chan struct{}),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go d.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(d.queue)
			select {
			case <-d.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	return d
}

// Publish implements domain.Publisher.
func (d *Dispatcher) Publish(ctx context.Context, event notificationdomain.BookingConfirmedEvent) {
	select {
	case d.queue <- event:
		d.metrics.RecordNotificationEvent(ctx, eventTypeBooking)
	default:
		d.log.Warn("event queue full, dropping event",
			zap.String("booking_id", event.BookingID),
		)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		d.handle(ctx, event)
		cancel()
	}
}

func (d *Dispatcher) handle(ctx context.Context, event notificationdomain.BookingConfirmedEvent) {
	provider, providerOK := d.lookup(ctx, event.ProviderID)
	student, studentOK := d.lookup(ctx, event.StudentID)

	studentName := fallbackDisplayName
	if studentOK && student.DisplayName != "" {
		studentName = student.DisplayName
	}

	if providerOK && provider.Email != "" {
		subject := fmt.Sprintf("New %s on %s", event.Kind, d.site.SiteName)
		body := fmt.Sprintf(
			"Hi %s,<br><br>%s has just booked your %s.<br><br><strong>Booking ID:</strong> %s<br><strong>Amount:</strong> %.2f %s<br><strong>Gateway:</strong> %s<br><br>You can review this booking from your account.",
			template.HTMLEscapeString(provider.DisplayName),
			template.HTMLEscapeString(studentName),
			template.HTMLEscapeString(event.Kind),
			template.HTMLEscapeString(event.BookingID),
			event.Amount,
			template.HTMLEscapeString(event.Currency),
			template.HTMLEscapeString(event.Gateway),
		)
		d.send(ctx, provider.Email, subject, body, event.BookingID)
	}

	if studentOK && student.Email != "" {
		subject := fmt.Sprintf("Your %s is confirmed", event.Kind)
		body := fmt.Sprintf(
			"Hi %s,<br><br>Your %s has been confirmed.<br><br><strong>Booking ID:</strong> %s<br><strong>Amount:</strong> %.2f %s<br><strong>Gateway:</strong> %s<br><br>If you have any questions, you can message your provider.",
			template.HTMLEscapeString(studentName),
			template.HTMLEscapeString(event.Kind),
			template.HTMLEscapeString(event.BookingID),
			event.Amount,
			template.HTMLEscapeString(event.Currency),
			template.HTMLEscapeString(event.Gateway),
		)
		d.send(ctx, student.Email, subject, body, event.BookingID)
	}

	meta := map[string]any{
		"booking_id": event.BookingID,
		"kind":       event.Kind,
		"amount":     event.Amount,
		"currency":   event.Currency,
		"gateway":    event.Gateway,
	}
	d.addNote(ctx, event.ProviderID, fmt.Sprintf("Your %s booking %s is fully completed.", event.Kind, event.BookingID), meta)
	d.addNote(ctx, event.StudentID, fmt.Sprintf("Your %s booking %s is confirmed.", event.Kind, event.BookingID), meta)
}

func (d *Dispatcher) lookup(ctx context.Context, userID string) (notificationdomain.Profile, bool) {
	if userID == "" {
		return notificationdomain.Profile{}, false
	}
	return d.users.Lookup(ctx, userID)
}

func (d *Dispatcher) send(ctx context.Context, to, subject, bodyHTML, bookingID string) {
	html, err := renderEmail(d.site, subject, bodyHTML)
	if err != nil {
		d.log.Error("email render failed", zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	if err := d.email.Send(ctx, []string{to}, subject, html); err != nil {
		d.log.Error("email delivery failed",
			zap.String("booking_id", bookingID),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) addNote(ctx context.Context, userID, message string, meta map[string]any) {
	if userID == "" {
		return
	}
	err := d.notes.Add(ctx, userID, notificationdomain.Notification{
		Type:    eventTypeBooking,
		Message: message,
		Meta:    meta,
	})
	if err != nil {
		d.log.Error("notification persist failed", zap.String("user_id", userID), zap.Error(err))
	}
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Heading}}</title>
</head>
<body style="margin:0;padding:0;background:#f3f4f6;font-family:Helvetica,Arial,sans-serif;">
  <table width="100%" cellspacing="0" cellpadding="0" border="0" style="background:#f3f4f6;padding:24px 0;">
    <tr>
      <td align="center">
        <table width="600" cellspacing="0" cellpadding="0" border="0" style="background:#ffffff;border-radius:16px;overflow:hidden;">
          <tr>
            <td align="center" style="padding:24px 24px 8px 24px;background:#0f172a;">
              <a href="{{.SiteURL}}" style="color:#e5e7eb;font-size:14px;letter-spacing:0.06em;text-transform:uppercase;text-decoration:none;">{{.SiteName}}</a>
            </td>
          </tr>
          <tr>
            <td style="padding:24px 24px 8px 24px;">
              <h1 style="margin:0 0 12px 0;font-size:20px;line-height:1.4;color:#0f172a;">{{.Heading}}</h1>
              <div style="font-size:15px;line-height:1.7;color:#111827;">{{.Body}}</div>
            </td>
          </tr>
          <tr>
            <td style="padding:16px 24px 24px 24px;">
              <div style="font-size:12px;line-height:1.6;color:#6b7280;">
                If you have any questions, you can reply to this email or contact us via the support section on our website.
              </div>
              <div style="font-size:12px;color:#9ca3af;margin-top:8px;">
                &copy; {{.Year}} {{.SiteName}}
              </div>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))

func renderEmail(site config.EmailConfig, heading, bodyHTML string) (string, error) {
	var out bytes.Buffer
	err := emailTemplate.Execute(&out, map[string]any{
		"Heading":  heading,
		"Body":     template.HTML(bodyHTML),
		"SiteName": site.SiteName,
		"SiteURL":  template.URL(site.SiteURL),
		"Year":     time.Now().Year(),
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
