package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"miclinica_backend/internals/constants"
	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"
	"miclinica_backend/internals/helpers/dbtime"

	apptmodel "miclinica_backend/internals/features/appointments/model"
	auditsvc "miclinica_backend/internals/features/audit/service"
	"miclinica_backend/internals/features/payments/model"
	"miclinica_backend/internals/features/realtime"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Payment{},
		&apptmodel.Appointment{},
	))
	return db
}

func seedAppointment(t *testing.T, db *gorm.DB, clinicID uuid.UUID, status string) *apptmodel.Appointment {
	t.Helper()
	now := time.Now()
	appt := &apptmodel.Appointment{
		AppointmentClinicID:  clinicID,
		AppointmentPatientID: uuid.New(),
		AppointmentDate:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local),
		AppointmentTime:      dbtime.From(now),
		AppointmentStatus:    status,
	}
	require.NoError(t, db.Create(appt).Error)
	return appt
}

func TestOpenForAppointmentIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	ctx := context.Background()

	clinicID := uuid.New()
	appt := seedAppointment(t, db, clinicID, apptmodel.StatusPending)

	first, err := svc.OpenForAppointmentTx(ctx, db, clinicID, appt.AppointmentPatientID, appt.AppointmentID, 12000)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), first.PaymentAmount)
	assert.Equal(t, model.PaymentStatusPending, first.PaymentStatus)

	second, err := svc.OpenForAppointmentTx(ctx, db, clinicID, appt.AppointmentPatientID, appt.AppointmentID, 99999)
	require.NoError(t, err)
	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, int64(12000), second.PaymentAmount, "second open must not change the amount")
}

func TestResyncOnlyTouchesPendingPayments(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	ctx := context.Background()

	clinicID := uuid.New()
	appt := seedAppointment(t, db, clinicID, apptmodel.StatusPending)
	_, err := svc.OpenForAppointmentTx(ctx, db, clinicID, appt.AppointmentPatientID, appt.AppointmentID, 5000)
	require.NoError(t, err)

	require.NoError(t, svc.ResyncTx(ctx, db, clinicID, appt.AppointmentID, 7000))
	p, err := svc.getByAppointmentTx(ctx, db, clinicID, appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), p.PaymentAmount)

	_, err = svc.MarkPaidTx(ctx, db, clinicID, appt.AppointmentID, model.PaymentMethodCash)
	require.NoError(t, err)

	// Paid payments ignore resync silently.
	require.NoError(t, svc.ResyncTx(ctx, db, clinicID, appt.AppointmentID, 100))
	p, err = svc.getByAppointmentTx(ctx, db, clinicID, appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), p.PaymentAmount)
}

func TestMarkPaidRequiresPendingPayment(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	ctx := context.Background()

	clinicID := uuid.New()
	appt := seedAppointment(t, db, clinicID, apptmodel.StatusReadyForPayment)
	_, err := svc.OpenForAppointmentTx(ctx, db, clinicID, appt.AppointmentPatientID, appt.AppointmentID, 5000)
	require.NoError(t, err)

	_, err = svc.MarkPaidTx(ctx, db, clinicID, appt.AppointmentID, "iou")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	paid, err := svc.MarkPaidTx(ctx, db, clinicID, appt.AppointmentID, model.PaymentMethodCard)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, model.PaymentMethodCard, *paid.PaymentMethod)
	assert.NotNil(t, paid.PaymentDate)

	_, err = svc.MarkPaidTx(ctx, db, clinicID, appt.AppointmentID, model.PaymentMethodCash)
	assert.True(t, apperror.IsKind(err, apperror.KindState), "second collection must fail")
}

func TestCancelWritesNoneSentinelAndRejectsPaid(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	ctx := context.Background()

	clinicID := uuid.New()
	appt := seedAppointment(t, db, clinicID, apptmodel.StatusPending)
	_, err := svc.OpenForAppointmentTx(ctx, db, clinicID, appt.AppointmentPatientID, appt.AppointmentID, 5000)
	require.NoError(t, err)

	cancelled, err := svc.CancelTx(ctx, db, clinicID, appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCancelled, cancelled.PaymentStatus)
	require.NotNil(t, cancelled.PaymentMethod)
	assert.Equal(t, model.PaymentMethodNone, *cancelled.PaymentMethod)

	// Cancelling again is a no-op.
	again, err := svc.CancelTx(ctx, db, clinicID, appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCancelled, again.PaymentStatus)

	// A collected payment can never be voided.
	other := seedAppointment(t, db, clinicID, apptmodel.StatusReadyForPayment)
	_, err = svc.OpenForAppointmentTx(ctx, db, clinicID, other.AppointmentPatientID, other.AppointmentID, 8000)
	require.NoError(t, err)
	_, err = svc.MarkPaidTx(ctx, db, clinicID, other.AppointmentID, model.PaymentMethodCash)
	require.NoError(t, err)

	_, err = svc.CancelTx(ctx, db, clinicID, other.AppointmentID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestManualAdjustIsAdminOnly(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	ctx := context.Background()

	clinicID := uuid.New()
	appt := seedAppointment(t, db, clinicID, apptmodel.StatusPending)
	_, err := svc.OpenForAppointmentTx(ctx, db, clinicID, appt.AppointmentPatientID, appt.AppointmentID, 5000)
	require.NoError(t, err)

	staff := helper.Session{UserID: uuid.New(), ClinicID: clinicID, Role: constants.RoleStaff}
	_, err = svc.ManualAdjust(ctx, staff, appt.AppointmentID, 4000)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	admin := helper.Session{UserID: uuid.New(), ClinicID: clinicID, Role: constants.RoleAdmin}
	adjusted, err := svc.ManualAdjust(ctx, admin, appt.AppointmentID, 4000)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), adjusted.PaymentAmount)

	_, err = svc.ManualAdjust(ctx, admin, appt.AppointmentID, -1)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// Once collected, the amount is immutable.
	_, err = svc.MarkPaidTx(ctx, db, clinicID, appt.AppointmentID, model.PaymentMethodTransfer)
	require.NoError(t, err)
	_, err = svc.ManualAdjust(ctx, admin, appt.AppointmentID, 1000)
	assert.True(t, apperror.IsKind(err, apperror.KindState))
}

type captureSink struct {
	entries []auditsvc.Entry
}

func (c *captureSink) Record(ctx context.Context, e auditsvc.Entry) {
	c.entries = append(c.entries, e)
}

type capturePublisher struct {
	events []realtime.Event
}

func (p *capturePublisher) Publish(e realtime.Event) {
	p.events = append(p.events, e)
}

func TestManualAdjustReportsToObservers(t *testing.T) {
	db := newTestDB(t)
	sink := &captureSink{}
	feed := &capturePublisher{}
	svc := New(db).WithObservers(sink, feed)
	ctx := context.Background()

	clinicID := uuid.New()
	appt := seedAppointment(t, db, clinicID, apptmodel.StatusPending)
	opened, err := svc.OpenForAppointmentTx(ctx, db, clinicID, appt.AppointmentPatientID, appt.AppointmentID, 5000)
	require.NoError(t, err)

	admin := helper.Session{UserID: uuid.New(), ClinicID: clinicID, Role: constants.RoleAdmin}
	_, err = svc.ManualAdjust(ctx, admin, appt.AppointmentID, 3500)
	require.NoError(t, err)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, "payment.adjust_amount", entry.Action)
	require.NotNil(t, entry.ClinicID)
	assert.Equal(t, clinicID, *entry.ClinicID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, admin.UserID, *entry.UserID)
	require.NotNil(t, entry.RecordID)
	assert.Equal(t, opened.PaymentID, *entry.RecordID)

	require.Len(t, feed.events, 1)
	assert.Equal(t, realtime.EventPaymentAdjusted, feed.events[0].Type)
	assert.Equal(t, clinicID, feed.events[0].ClinicID)

	// A failed adjustment stays silent.
	_, err = svc.ManualAdjust(ctx, admin, appt.AppointmentID, -1)
	require.Error(t, err)
	assert.Len(t, sink.entries, 1)
	assert.Len(t, feed.events, 1)
}
