package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fisiocare/booking-api/internal/model"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
)

// Sentinels for staff listings whose profile join came back empty.
const (
	unknownPatientName  = "Unknown"
	unknownPatientEmail = "No email"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, service_type, scheduled_at,
			status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.ServiceType,
		appointment.ScheduledAt,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return apperrors.Persistence("failed to create appointment", err)
	}
	return nil
}

// Get looks up a single appointment. It deliberately selects without LIMIT so
// a broken uniqueness constraint upstream surfaces as an integrity fault
// instead of silently returning an arbitrary row.
func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, service_type, scheduled_at,
			   status, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var rows []*model.Appointment
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, apperrors.Persistence("failed to get appointment", err)
	}

	switch len(rows) {
	case 0:
		return nil, apperrors.NotFound("appointment")
	case 1:
		return rows[0], nil
	default:
		return nil, apperrors.Integrity("duplicate appointment rows for id "+id.String(), nil)
	}
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, service_type, scheduled_at,
			   status, notes, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, apperrors.Persistence("failed to list appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]*model.EnrichedAppointment, error) {
	query := `
		SELECT a.id, a.patient_id, a.service_type, a.scheduled_at,
			   a.status, a.notes, a.created_at, a.updated_at,
			   COALESCE(p.full_name, 'Unknown') AS patient_name,
			   COALESCE(p.email, 'No email') AS patient_email,
			   p.sex AS patient_sex,
			   p.age AS patient_age,
			   p.phone AS patient_phone,
			   p.clinical_notes
		FROM appointments a
		LEFT JOIN patient_profiles p ON p.id = a.patient_id
		ORDER BY a.scheduled_at ASC
	`
	var appointments []*model.EnrichedAppointment
	if err := r.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, apperrors.Persistence("failed to list appointments", err)
	}
	return appointments, nil
}

// UpdateStatus performs the conditional status update. The WHERE clause keys
// on the previously-read status so concurrent transitions on the same row
// cannot silently overwrite each other; zero rows affected means the guard
// failed and the caller must re-read.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, to, updatedAt, id, from)
	if err != nil {
		return false, apperrors.Persistence("failed to update appointment status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Persistence("failed to get rows affected", err)
	}
	return rows == 1, nil
}
