package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisiocare/booking-api/internal/model"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func appointmentColumns() []string {
	return []string{
		"id", "patient_id", "service_type", "scheduled_at",
		"status", "notes", "created_at", "updated_at",
	}
}

func TestAppointmentCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	apt := &model.Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		ServiceType: model.ServiceTypePhysicalTherapy,
		ScheduledAt: time.Now().UTC().Add(48 * time.Hour),
		Status:      model.AppointmentStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(apt.ID, apt.PatientID, apt.ServiceType, apt.ScheduledAt,
			apt.Status, apt.Notes, apt.CreatedAt, apt.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), apt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(appointmentColumns()))

	_, err := repo.Get(context.Background(), id)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestAppointmentGetDuplicateRowsIsIntegrityFault(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	id := uuid.New()
	patientID := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows(appointmentColumns()).
		AddRow(id, patientID, "Physical Therapy", now.Add(time.Hour), "pending", nil, now, now).
		AddRow(id, patientID, "Physical Therapy", now.Add(time.Hour), "confirmed", nil, now, now)

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(id).
		WillReturnRows(rows)

	_, err := repo.Get(context.Background(), id)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindIntegrity))
}

func TestAppointmentListAllDefaultsMissingProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	id := uuid.New()
	patientID := uuid.New()
	now := time.Now().UTC()
	cols := append(appointmentColumns(),
		"patient_name", "patient_email", "patient_sex", "patient_age", "patient_phone", "clinical_notes")
	rows := sqlmock.NewRows(cols).
		AddRow(id, patientID, "Rehabilitation", now.Add(time.Hour), "pending", nil, now, now,
			"Unknown", "No email", nil, nil, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM appointments a").
		WillReturnRows(rows)

	list, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Unknown", list[0].PatientName)
	assert.Equal(t, "No email", list[0].PatientEmail)
	assert.Nil(t, list[0].PatientAge)
}

func TestAppointmentUpdateStatusGuardMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE appointments").
		WithArgs(model.AppointmentStatusConfirmed, now, id, model.AppointmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), id,
		model.AppointmentStatusPending, model.AppointmentStatusConfirmed, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppointmentUpdateStatusHit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE appointments").
		WithArgs(model.AppointmentStatusCancelled, now, id, model.AppointmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatus(context.Background(), id,
		model.AppointmentStatusPending, model.AppointmentStatusCancelled, now)
	require.NoError(t, err)
	assert.True(t, ok)
}
