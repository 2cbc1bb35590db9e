package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fisiocare/booking-api/internal/email"
	"github.com/fisiocare/booking-api/internal/model"
	"github.com/fisiocare/booking-api/internal/repository"
	"github.com/fisiocare/booking-api/pkg/circuitbreaker"
	"github.com/fisiocare/booking-api/pkg/logger"
	"github.com/fisiocare/booking-api/pkg/messaging"
	"github.com/fisiocare/booking-api/pkg/metrics"
	"github.com/fisiocare/booking-api/pkg/telegram"
)

const inAppChannel = "notifications"

type Config struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	EventTTL     time.Duration
}

// Deliverer drains notification.created outbox events and runs the
// best-effort external delivery: Telegram webhook, SMTP, and the in-app
// Redis channel. Delivery failures retry with backoff and never touch the
// appointment or notification rows that triggered them, beyond flipping
// externally_delivered on success.
type Deliverer struct {
	cfg           Config
	outbox        repository.OutboxRepository
	notifications repository.NotificationRepository
	profiles      repository.PatientProfileRepository
	telegram      *telegram.Client
	email         email.Service
	broker        messaging.Broker
	profileCache  *gocache.Cache
	telegramCB    *circuitbreaker.CircuitBreaker
	emailCB       *circuitbreaker.CircuitBreaker
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewDeliverer(
	cfg Config,
	outbox repository.OutboxRepository,
	notifications repository.NotificationRepository,
	profiles repository.PatientProfileRepository,
	telegramClient *telegram.Client,
	emailSvc email.Service,
	broker messaging.Broker,
	log *logger.Logger,
	m *metrics.Metrics,
) *Deliverer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 30 * time.Second
	}
	if cfg.EventTTL <= 0 {
		cfg.EventTTL = 24 * time.Hour
	}

	return &Deliverer{
		cfg:           cfg,
		outbox:        outbox,
		notifications: notifications,
		profiles:      profiles,
		telegram:      telegramClient,
		email:         emailSvc,
		broker:        broker,
		profileCache:  gocache.New(5*time.Minute, 10*time.Minute),
		telegramCB:    circuitbreaker.New(circuitbreaker.Settings{Name: "telegram"}),
		emailCB:       circuitbreaker.New(circuitbreaker.Settings{Name: "email"}),
		logger:        log.WithComponent("deliverer"),
		metrics:       m,
	}
}

func (d *Deliverer) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(d.cfg.EventTTL)
	defer cleanup.Stop()

	d.logger.Info("starting notification deliverer")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down notification deliverer")
			return
		case <-ticker.C:
			if err := d.processBatch(ctx); err != nil {
				d.logger.Error(err, "failed to process delivery batch")
			}
		case <-cleanup.C:
			if _, err := d.outbox.DeleteProcessedBefore(ctx, time.Now().Add(-d.cfg.EventTTL)); err != nil {
				d.logger.Error(err, "failed to clean up processed events")
			}
		}
	}
}

func (d *Deliverer) processBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(d.metrics.DeliveryLatency)
	defer timer.ObserveDuration()

	events, err := d.outbox.GetPendingWithLock(ctx, d.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := d.processEvent(ctx, event); err != nil {
			d.handleFailure(ctx, event, err)
			continue
		}
		d.metrics.DeliveriesProcessed.Inc()
		if err := d.outbox.MarkProcessed(ctx, event.ID); err != nil {
			d.logger.Error(err, "failed to mark event processed", "event_id", event.ID.String())
		}
	}
	return nil
}

func (d *Deliverer) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	if event.EventType != model.EventTypeNotificationCreated {
		// Unknown types are processed away rather than retried forever.
		d.logger.Warn("skipping unknown event type", "event_type", event.EventType)
		return nil
	}

	var payload model.NotificationCreatedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode delivery payload: %w", err)
	}

	delivered, attempted := d.deliverExternal(ctx, &payload)
	if attempted && !delivered {
		return fmt.Errorf("all external delivery channels failed for notification %s", payload.NotificationID)
	}
	if delivered {
		if err := d.notifications.MarkExternallyDelivered(ctx, payload.NotificationID); err != nil {
			d.logger.Error(err, "failed to flag external delivery",
				"notification_id", payload.NotificationID.String())
		}
	}

	if d.broker != nil {
		msg := messaging.Message{Type: string(payload.Kind), Payload: payload}
		if err := d.broker.Publish(ctx, inAppChannel, msg); err != nil {
			d.logger.Error(err, "failed to publish in-app notification",
				"notification_id", payload.NotificationID.String())
		}
	}

	return nil
}

// deliverExternal tries every configured channel. It reports whether at
// least one confirmed delivery and whether any channel was attempted at all;
// an unconfigured deployment is not a delivery failure. Channel errors are
// logged here and only surface as a retry when every attempted channel
// failed.
func (d *Deliverer) deliverExternal(ctx context.Context, payload *model.NotificationCreatedPayload) (delivered, attempted bool) {
	if d.telegram != nil && d.telegram.Enabled() {
		attempted = true
		err := d.telegramCB.Execute(func() error {
			return d.telegram.Send(ctx, payload.Title, payload.Message)
		})
		if err != nil {
			d.metrics.DeliveryRetries.WithLabelValues("telegram").Inc()
			d.logger.Error(err, "telegram delivery failed",
				"notification_id", payload.NotificationID.String())
		} else {
			delivered = true
		}
	}

	if d.email != nil {
		attempted = true
		if addr, err := d.recipientEmail(ctx, payload.UserID); err != nil {
			d.logger.Error(err, "failed to resolve recipient email",
				"user_id", payload.UserID.String())
		} else if err := d.emailCB.Execute(func() error {
			return d.email.Send(ctx, addr, payload.Title, payload.Message)
		}); err != nil {
			d.metrics.DeliveryRetries.WithLabelValues("email").Inc()
			d.logger.Error(err, "email delivery failed",
				"notification_id", payload.NotificationID.String())
		} else {
			delivered = true
		}
	}

	return delivered, attempted
}

func (d *Deliverer) recipientEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	key := userID.String()
	if cached, ok := d.profileCache.Get(key); ok {
		return cached.(string), nil
	}

	profile, err := d.profiles.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile.Email == "" {
		return "", errors.New("profile has no email address")
	}

	d.profileCache.SetDefault(key, profile.Email)
	return profile.Email, nil
}

func (d *Deliverer) handleFailure(ctx context.Context, event *model.OutboxEvent, cause error) {
	d.metrics.DeliveriesFailed.Inc()
	d.logger.Error(cause, "failed to process delivery event",
		"event_id", event.ID.String(),
		"retry_count", event.RetryCount)

	retryCount := event.RetryCount + 1
	var retryAt *time.Time
	if retryCount < d.cfg.MaxRetries {
		at := time.Now().Add(d.cfg.RetryBackoff * time.Duration(retryCount))
		retryAt = &at
	}

	if err := d.outbox.MarkFailed(ctx, event.ID, cause.Error(), retryCount, retryAt); err != nil {
		d.logger.Error(err, "failed to record delivery failure", "event_id", event.ID.String())
	}
}
