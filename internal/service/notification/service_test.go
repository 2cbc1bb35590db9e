package notification

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisiocare/booking-api/internal/model"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
	"github.com/fisiocare/booking-api/pkg/logger"
)

type fakeNotificationRepo struct {
	rows      map[uuid.UUID]*model.Notification
	createErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: make(map[uuid.UUID]*model.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *n
	f.rows[n.ID] = &cp
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkAsRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	n, ok := f.rows[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.Read = true
	return true, nil
}

func (f *fakeNotificationRepo) MarkExternallyDelivered(_ context.Context, id uuid.UUID) error {
	if n, ok := f.rows[id]; ok {
		n.ExternallyDelivered = true
	}
	return nil
}

type fakeOutbox struct {
	events    []*model.OutboxEvent
	createErr error
}

func (f *fakeOutbox) Create(_ context.Context, e *model.OutboxEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeOutbox) GetPendingWithLock(context.Context, int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutbox) MarkProcessed(context.Context, uuid.UUID) error { return nil }

func (f *fakeOutbox) MarkFailed(context.Context, uuid.UUID, string, int, *time.Time) error {
	return nil
}

func (f *fakeOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newTestService(repo *fakeNotificationRepo, outbox *fakeOutbox) *Service {
	svc := NewService(repo, outbox, logger.NewLogger(&logger.Config{
		Level:  logger.ErrorLevel,
		Output: io.Discard,
	}))
	svc.now = func() time.Time {
		return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestComposeTemplates(t *testing.T) {
	at := time.Date(2024, 2, 14, 9, 30, 0, 0, time.UTC)

	title, message, err := Compose(model.NotificationKindAppointmentCreated, at, "Physical Therapy")
	require.NoError(t, err)
	assert.Equal(t, "New Appointment Scheduled", title)
	assert.Contains(t, message, "Physical Therapy")
	assert.Contains(t, message, "14 Feb 2024")

	title, _, err = Compose(model.NotificationKindAppointmentUpdated, at, "Rehabilitation")
	require.NoError(t, err)
	assert.Equal(t, "Appointment Updated", title)

	title, message, err = Compose(model.NotificationKindAppointmentReminder, at, "Sports Medicine")
	require.NoError(t, err)
	assert.Equal(t, "Appointment Reminder", title)
	assert.Contains(t, message, "Reminder")

	_, _, err = Compose(model.NotificationKind("bogus"), at, "x")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestNotifyAppointmentPersistsAndEnqueues(t *testing.T) {
	repo := newFakeNotificationRepo()
	outbox := &fakeOutbox{}
	svc := newTestService(repo, outbox)
	userID := uuid.New()

	err := svc.NotifyAppointment(context.Background(), userID,
		model.NotificationKindAppointmentCreated,
		time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), "Physical Therapy")
	require.NoError(t, err)

	require.Len(t, repo.rows, 1)
	for _, n := range repo.rows {
		assert.Equal(t, userID, n.UserID)
		assert.False(t, n.Read)
		assert.False(t, n.ExternallyDelivered)
	}
	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventTypeNotificationCreated, outbox.events[0].EventType)
}

func TestNotifyAppointmentOutboxFailureIsSwallowed(t *testing.T) {
	repo := newFakeNotificationRepo()
	outbox := &fakeOutbox{createErr: apperrors.Persistence("insert failed", nil)}
	svc := newTestService(repo, outbox)

	err := svc.NotifyAppointment(context.Background(), uuid.New(),
		model.NotificationKindAppointmentUpdated,
		time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), "Rehabilitation")

	require.NoError(t, err, "delivery enqueue failure must not fail the notification")
	assert.Len(t, repo.rows, 1)
}

func TestNotifyAppointmentPersistenceFailureReturned(t *testing.T) {
	repo := newFakeNotificationRepo()
	repo.createErr = apperrors.Persistence("insert failed", nil)
	svc := newTestService(repo, &fakeOutbox{})

	err := svc.NotifyAppointment(context.Background(), uuid.New(),
		model.NotificationKindAppointmentCreated,
		time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), "Physical Therapy")

	assert.True(t, apperrors.Is(err, apperrors.KindPersistence))
}

func TestMarkAsReadOwnership(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestService(repo, &fakeOutbox{})

	owner := uuid.New()
	n := &model.Notification{ID: uuid.New(), UserID: owner, Kind: model.NotificationKindAppointmentCreated}
	require.NoError(t, repo.Create(context.Background(), n))

	require.NoError(t, svc.MarkAsRead(context.Background(), n.ID, owner))
	assert.True(t, repo.rows[n.ID].Read)

	err := svc.MarkAsRead(context.Background(), n.ID, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound),
		"mismatched recipient must look like not-found")

	err = svc.MarkAsRead(context.Background(), uuid.New(), owner)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
