package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fisiocare/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository persists bookings. Get distinguishes zero rows
	// (not found) from duplicate rows (integrity fault); UpdateStatus is a
	// compare-and-swap keyed on the previously observed status.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		ListAll(ctx context.Context) ([]*model.EnrichedAppointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, updatedAt time.Time) (bool, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
		MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
		MarkExternallyDelivered(ctx context.Context, id uuid.UUID) error
	}

	// PatientProfileRepository reads profiles owned by the identity
	// collaborator. This service never writes them.
	PatientProfileRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.PatientProfile, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryCount int, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
