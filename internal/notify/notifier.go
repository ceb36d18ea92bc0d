package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/models"
	"lead-intake/internal/schema"
)

var (
	ErrNoContactChannel       = errors.New("NO_CONTACT_CHANNEL")
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Notifier reaches applicants. Every call is best effort: callers log the
// returned error and carry on.
type Notifier interface {
	ApplicationReceived(ctx context.Context, rec models.Record) error
	StatusChanged(ctx context.Context, rec models.Record, entry models.StatusEntry) error
}

// Outcome reports what a delivery attempt did.
type Outcome struct {
	Status   string   `json:"status"`
	Channels []string `json:"channels,omitempty"`
}

type DirectConfig struct {
	Email              EmailSender
	SMS                SMSSender
	PlaceholderDomains []string
	Templates          map[Event]Template
}

// Direct renders templates and delivers through the configured sinks in-process.
type Direct struct {
	email              EmailSender
	sms                SMSSender
	placeholderDomains []string
	templates          map[Event]Template
	logger             logger.Logger
}

func NewDirect(cfg DirectConfig, log logger.Logger) *Direct {
	templates := cfg.Templates
	if templates == nil {
		templates = DefaultTemplates
	}
	return &Direct{
		email:              cfg.Email,
		sms:                cfg.SMS,
		placeholderDomains: lo.Map(cfg.PlaceholderDomains, func(d string, _ int) string { return strings.ToLower(d) }),
		templates:          templates,
		logger:             log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (d *Direct) ApplicationReceived(ctx context.Context, rec models.Record) error {
	_, err := d.Deliver(ctx, EventApplicationReceived, rec, nil)
	return err
}

func (d *Direct) StatusChanged(ctx context.Context, rec models.Record, entry models.StatusEntry) error {
	_, err := d.Deliver(ctx, EventStatusChanged, rec, &entry)
	return err
}

// Deliver sends one event over every usable channel. It fails only when no
// channel succeeded.
func (d *Direct) Deliver(ctx context.Context, event Event, rec models.Record, entry *models.StatusEntry) (Outcome, error) {
	email, phone := d.channels(rec)
	if email == "" && phone == "" {
		metrics.NotificationsTotal.WithLabelValues(string(event), StatusDisabled).Inc()
		return Outcome{Status: StatusDisabled}, fmt.Errorf("%w: %s", ErrNoContactChannel, rec.RecordID())
	}

	tmpl, ok := d.templates[event]
	if !ok {
		return Outcome{Status: StatusFailed}, fmt.Errorf("%w: no template for %s", ErrNotificationSendFailed, event)
	}
	data := TemplateData(rec, entry)

	var (
		sent []string
		errs []error
	)
	if email != "" {
		if err := d.email.SendEmail(ctx, tmpl.Render(email, data)); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			sent = append(sent, "email")
		}
	}
	if phone != "" {
		if err := d.sms.SendSMS(ctx, phone, tmpl.Render(phone, data).Text); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		} else {
			sent = append(sent, "sms")
		}
	}

	if len(sent) == 0 {
		metrics.NotificationsTotal.WithLabelValues(string(event), StatusFailed).Inc()
		return Outcome{Status: StatusFailed}, fmt.Errorf("%w: %v", ErrNotificationSendFailed, errors.Join(errs...))
	}
	if len(errs) > 0 {
		d.logger.Warn("notification partially delivered", map[string]interface{}{
			"id":    rec.RecordID(),
			"event": string(event),
			"error": errors.Join(errs...),
		})
	}

	metrics.NotificationsTotal.WithLabelValues(string(event), StatusSent).Inc()
	return Outcome{Status: StatusSent, Channels: sent}, nil
}

func (d *Direct) channels(rec models.Record) (email, phone string) {
	c := rec.Contact()
	if d.email != nil && !IsPlaceholderEmail(c.Email, d.placeholderDomains) {
		email = strings.TrimSpace(c.Email)
	}
	if d.sms != nil && schema.CheckMobile(c.Phone) == nil {
		phone = c.Phone
	}
	return email, phone
}

// IsPlaceholderEmail treats blank, malformed and throwaway-domain addresses as unusable.
func IsPlaceholderEmail(email string, placeholderDomains []string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if email == "" || at < 1 || at == len(email)-1 {
		return true
	}
	return lo.Contains(placeholderDomains, email[at+1:])
}

// Nop drops every notification.
type Nop struct{}

func (Nop) ApplicationReceived(context.Context, models.Record) error { return nil }

func (Nop) StatusChanged(context.Context, models.Record, models.StatusEntry) error { return nil }
