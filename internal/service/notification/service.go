package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisiocare/booking-api/internal/model"
	"github.com/fisiocare/booking-api/internal/repository"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
	"github.com/fisiocare/booking-api/pkg/logger"
)

var titles = map[model.NotificationKind]string{
	model.NotificationKindAppointmentCreated:  "New Appointment Scheduled",
	model.NotificationKindAppointmentUpdated:  "Appointment Updated",
	model.NotificationKindAppointmentReminder: "Appointment Reminder",
}

var messages = map[model.NotificationKind]string{
	model.NotificationKindAppointmentCreated:  "A new %s appointment has been scheduled for %s",
	model.NotificationKindAppointmentUpdated:  "Your %s appointment has been updated for %s",
	model.NotificationKindAppointmentReminder: "Reminder: you have a %s appointment tomorrow at %s",
}

type Service struct {
	repo   repository.NotificationRepository
	outbox repository.OutboxRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo repository.NotificationRepository, outbox repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		outbox: outbox,
		logger: logger,
		now:    time.Now,
	}
}

// Compose builds the title/message pair for a kind from its fixed template.
func Compose(kind model.NotificationKind, scheduledAt time.Time, serviceType string) (title, message string, err error) {
	if !kind.Valid() {
		return "", "", apperrors.Validation("invalid notification",
			apperrors.FieldError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", kind)})
	}
	when := scheduledAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	return titles[kind], fmt.Sprintf(messages[kind], serviceType, when), nil
}

// NotifyAppointment persists a notification for an appointment event and
// enqueues its external delivery. A failed outbox insert downgrades delivery
// to in-app only rather than failing the notification; the appointment
// service treats the whole call as fire-and-forget either way.
func (s *Service) NotifyAppointment(ctx context.Context, userID uuid.UUID, kind model.NotificationKind, scheduledAt time.Time, serviceType string) error {
	title, message, err := Compose(kind, scheduledAt, serviceType)
	if err != nil {
		return err
	}

	n := &model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if err := s.enqueueDelivery(ctx, n); err != nil {
		s.logger.Error(err, "failed to enqueue notification delivery",
			"notification_id", n.ID.String())
	}
	return nil
}

func (s *Service) enqueueDelivery(ctx context.Context, n *model.Notification) error {
	payload, err := json.Marshal(model.NotificationCreatedPayload{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Kind:           n.Kind,
		Title:          n.Title,
		Message:        n.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal delivery payload: %w", err)
	}

	now := s.now().UTC()
	return s.outbox.Create(ctx, &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventTypeNotificationCreated,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	if userID == uuid.Nil {
		return nil, apperrors.Validation("invalid notification query",
			apperrors.FieldError{Field: "user_id", Message: "user id is required"})
	}
	return s.repo.ListByUser(ctx, userID)
}

// MarkAsRead flips the read flag when both ids match a stored row. A
// mismatched user id reports not-found, indistinguishable from a missing
// notification.
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	if id == uuid.Nil || userID == uuid.Nil {
		return apperrors.Validation("invalid notification update",
			apperrors.FieldError{Field: "id", Message: "notification and user ids are required"})
	}

	ok, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("notification")
	}
	return nil
}
