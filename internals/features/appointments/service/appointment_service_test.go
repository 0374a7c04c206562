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

	"miclinica_backend/internals/features/appointments/model"
	auditmodel "miclinica_backend/internals/features/audit/model"
	auditsvc "miclinica_backend/internals/features/audit/service"
	historymodel "miclinica_backend/internals/features/medicalhistory/model"
	historysvc "miclinica_backend/internals/features/medicalhistory/service"
	patientmodel "miclinica_backend/internals/features/patients/model"
	patientsvc "miclinica_backend/internals/features/patients/service"
	paymodel "miclinica_backend/internals/features/payments/model"
	paysvc "miclinica_backend/internals/features/payments/service"
	"miclinica_backend/internals/features/realtime"
	treatmodel "miclinica_backend/internals/features/treatments/model"
	usermodel "miclinica_backend/internals/features/users/model"
)

type feedCapture struct {
	events []realtime.Event
}

func (p *feedCapture) Publish(e realtime.Event) {
	p.events = append(p.events, e)
}

func (p *feedCapture) last() *realtime.Event {
	if len(p.events) == 0 {
		return nil
	}
	return &p.events[len(p.events)-1]
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	payments *paysvc.Service
	feed     *feedCapture

	clinicID uuid.UUID
	doctorID uuid.UUID

	cleaning treatmodel.Treatment // 5000
	filling  treatmodel.Treatment // 7000

	admin  helper.Session
	staff  helper.Session
	doctor helper.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Appointment{},
		&model.AppointmentTreatment{},
		&model.AppointmentHistory{},
		&paymodel.Payment{},
		&treatmodel.Treatment{},
		&patientmodel.Person{},
		&patientmodel.Patient{},
		&usermodel.User{},
		&historymodel.ClinicalRecord{},
		&auditmodel.AuditLog{},
	))

	f := &fixture{db: db, clinicID: uuid.New()}

	doctor := usermodel.User{
		UserClinicID:     &f.clinicID,
		UserPersonID:     uuid.New(),
		UserEmail:        "doctor@clinic.test",
		UserPasswordHash: "x",
		UserRole:         constants.RoleDoctor,
		UserActive:       true,
	}
	require.NoError(t, db.Create(&doctor).Error)
	f.doctorID = doctor.UserID

	f.cleaning = treatmodel.Treatment{
		TreatmentClinicID: f.clinicID,
		TreatmentName:     "cleaning",
		TreatmentPrice:    5000,
		TreatmentActive:   true,
	}
	f.filling = treatmodel.Treatment{
		TreatmentClinicID: f.clinicID,
		TreatmentName:     "filling",
		TreatmentPrice:    7000,
		TreatmentActive:   true,
	}
	require.NoError(t, db.Create(&f.cleaning).Error)
	require.NoError(t, db.Create(&f.filling).Error)

	f.payments = paysvc.New(db)
	directory := patientsvc.NewDirectory(db, nil)
	history := historysvc.New(db)
	recorder := auditsvc.NewRecorder(db)
	f.feed = &feedCapture{}
	f.svc = New(db, f.payments, directory, history, recorder, f.feed)

	f.admin = helper.Session{UserID: uuid.New(), ClinicID: f.clinicID, Role: constants.RoleAdmin}
	f.staff = helper.Session{UserID: uuid.New(), ClinicID: f.clinicID, Role: constants.RoleStaff}
	f.doctor = helper.Session{UserID: f.doctorID, ClinicID: f.clinicID, Role: constants.RoleDoctor}
	return f
}

func (f *fixture) bookRequest(doctorID *uuid.UUID) BookRequest {
	now := time.Now()
	return BookRequest{
		Patient: patientsvc.PatientRef{
			DNI: "12345678",
			Person: &patientsvc.PersonInput{
				FirstNames:       "Maria",
				LastNamePaternal: "Quispe",
			},
		},
		DoctorID: doctorID,
		Date:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local),
		Time:     dbtime.From(now),
		Treatments: []LineItemInput{
			{TreatmentID: f.cleaning.TreatmentID},
			{TreatmentID: f.filling.TreatmentID},
		},
	}
}

func (f *fixture) payment(t *testing.T, apptID uuid.UUID) *paymodel.Payment {
	t.Helper()
	var p paymodel.Payment
	require.NoError(t, f.db.First(&p, "payment_appointment_id = ?", apptID).Error)
	return &p
}

/* ===================== Booking ===================== */

func TestBookOpensPaymentWithLineItemTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, appt.AppointmentStatus)

	p := f.payment(t, appt.AppointmentID)
	assert.Equal(t, int64(12000), p.PaymentAmount)
	assert.Equal(t, paymodel.PaymentStatusPending, p.PaymentStatus)
	assert.Nil(t, p.PaymentMethod)

	items, err := f.svc.ListItems(ctx, f.staff, appt.AppointmentID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestBookWithoutDoctorLandsInReassign(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Book(context.Background(), f.staff, f.bookRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, model.StatusReassign, appt.AppointmentStatus)
}

func TestBookRequiresTreatments(t *testing.T) {
	f := newFixture(t)

	req := f.bookRequest(&f.doctorID)
	req.Treatments = nil
	_, err := f.svc.Book(context.Background(), f.staff, req)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestBookRejectsDoctorFromAnotherClinic(t *testing.T) {
	f := newFixture(t)

	stranger := uuid.New()
	req := f.bookRequest(&stranger)
	_, err := f.svc.Book(context.Background(), f.staff, req)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestDoctorsCannotBook(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), f.doctor, f.bookRequest(&f.doctorID))
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

/* ===================== Confirm / Reassign ===================== */

func TestConfirmOnlyByAssignedDoctorOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.staff, appt.AppointmentID)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden), "staff cannot confirm")

	otherDoctor := helper.Session{UserID: uuid.New(), ClinicID: f.clinicID, Role: constants.RoleDoctor}
	_, err = f.svc.Confirm(ctx, otherDoctor, appt.AppointmentID)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden), "unassigned doctor cannot confirm")

	confirmed, err := f.svc.Confirm(ctx, f.doctor, appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.AppointmentStatus)

	_, err = f.svc.Confirm(ctx, f.doctor, appt.AppointmentID)
	assert.True(t, apperror.IsKind(err, apperror.KindState), "confirm is not repeatable")
}

func TestReassignTogglesPendingAndReassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(nil))
	require.NoError(t, err)
	require.Equal(t, model.StatusReassign, appt.AppointmentStatus)

	appt, err = f.svc.Reassign(ctx, f.admin, appt.AppointmentID, &f.doctorID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, appt.AppointmentStatus)
	require.NotNil(t, appt.AppointmentDoctorID)

	appt, err = f.svc.Reassign(ctx, f.admin, appt.AppointmentID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReassign, appt.AppointmentStatus)
	assert.Nil(t, appt.AppointmentDoctorID)

	// Once confirmed, reassignment is closed.
	appt, err = f.svc.Reassign(ctx, f.admin, appt.AppointmentID, &f.doctorID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.admin, appt.AppointmentID)
	require.NoError(t, err)
	_, err = f.svc.Reassign(ctx, f.admin, appt.AppointmentID, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindState))
}

/* ===================== Ready / Finalize ===================== */

func TestFinalizeRequiresReadyForPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, f.staff, appt.AppointmentID, paymodel.PaymentMethodCash)
	assert.True(t, apperror.IsKind(err, apperror.KindState))

	p := f.payment(t, appt.AppointmentID)
	assert.Equal(t, paymodel.PaymentStatusPending, p.PaymentStatus, "failed finalize must not touch the payment")
}

func TestFullLifecycleCashFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.doctor, appt.AppointmentID)
	require.NoError(t, err)

	diagnosis := "caries on 2 molars"
	_, err = f.svc.MarkReadyForPayment(ctx, f.doctor, appt.AppointmentID, ClinicalNotes{Diagnosis: &diagnosis})
	require.NoError(t, err)

	var record historymodel.ClinicalRecord
	require.NoError(t, f.db.First(&record, "clinical_record_appointment_id = ?", appt.AppointmentID).Error)
	require.NotNil(t, record.ClinicalRecordDiagnosis)
	assert.Equal(t, diagnosis, *record.ClinicalRecordDiagnosis)

	final, err := f.svc.Finalize(ctx, f.staff, appt.AppointmentID, paymodel.PaymentMethodCash)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFinalized, final.AppointmentStatus)

	p := f.payment(t, appt.AppointmentID)
	assert.Equal(t, paymodel.PaymentStatusPaid, p.PaymentStatus)
	require.NotNil(t, p.PaymentMethod)
	assert.Equal(t, paymodel.PaymentMethodCash, *p.PaymentMethod)
	assert.Equal(t, int64(12000), p.PaymentAmount)
	assert.NotNil(t, p.PaymentDate)

	// Terminal: nothing moves anymore.
	_, err = f.svc.Cancel(ctx, f.admin, appt.AppointmentID)
	assert.True(t, apperror.IsKind(err, apperror.KindState))
}

func TestMarkReadyNeedsClinicalNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	_, err = f.svc.MarkReadyForPayment(ctx, f.doctor, appt.AppointmentID, ClinicalNotes{})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

/* ===================== Cancel ===================== */

func TestCancelVoidsPaymentWithNoneSentinel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, f.staff, appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.AppointmentStatus)

	p := f.payment(t, appt.AppointmentID)
	assert.Equal(t, paymodel.PaymentStatusCancelled, p.PaymentStatus)
	require.NotNil(t, p.PaymentMethod)
	assert.Equal(t, paymodel.PaymentMethodNone, *p.PaymentMethod)

	_, err = f.svc.Cancel(ctx, f.staff, appt.AppointmentID)
	assert.True(t, apperror.IsKind(err, apperror.KindState), "cancel is not repeatable")
}

func TestCancelWithCollectedPaymentConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	// Payment collected out of band while the appointment is still open.
	_, err = f.payments.MarkPaidTx(ctx, f.db, f.clinicID, appt.AppointmentID, paymodel.PaymentMethodTransfer)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.admin, appt.AppointmentID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	got, err := f.svc.Get(ctx, f.admin, appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.AppointmentStatus, "conflict must roll the whole cancellation back")
}

/* ===================== Editable window ===================== */

func TestUpdateTreatmentsResyncsPendingPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	_, err = f.svc.UpdateTreatments(ctx, f.staff, appt.AppointmentID, []LineItemInput{
		{TreatmentID: f.cleaning.TreatmentID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), f.payment(t, appt.AppointmentID).PaymentAmount)

	// Discounted price snapshots.
	discount := int64(3000)
	_, err = f.svc.UpdateTreatments(ctx, f.staff, appt.AppointmentID, []LineItemInput{
		{TreatmentID: f.cleaning.TreatmentID, AppliedPrice: &discount},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), f.payment(t, appt.AppointmentID).PaymentAmount)

	diagnosis := "done"
	_, err = f.svc.MarkReadyForPayment(ctx, f.doctor, appt.AppointmentID, ClinicalNotes{Diagnosis: &diagnosis})
	require.NoError(t, err)

	_, err = f.svc.UpdateTreatments(ctx, f.staff, appt.AppointmentID, []LineItemInput{
		{TreatmentID: f.filling.TreatmentID},
	})
	assert.True(t, apperror.IsKind(err, apperror.KindState), "frozen appointments reject edits")
	assert.Equal(t, int64(3000), f.payment(t, appt.AppointmentID).PaymentAmount, "amount frozen at ready_for_payment")
}

func TestRescheduleKeepsTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	newDate := appt.AppointmentDate.AddDate(0, 0, 7)
	newTime, err := dbtime.Parse("10:30")
	require.NoError(t, err)

	moved, err := f.svc.Reschedule(ctx, f.staff, appt.AppointmentID, newDate, newTime, nil)
	require.NoError(t, err)
	assert.Equal(t, "10:30", moved.AppointmentTime.String())

	trail, err := f.svc.ListHistory(ctx, f.staff, appt.AppointmentID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, appt.AppointmentTime.String(), trail[0].AppointmentHistoryPreviousTime.String())

	diagnosis := "done"
	_, err = f.svc.MarkReadyForPayment(ctx, f.doctor, appt.AppointmentID, ClinicalNotes{Diagnosis: &diagnosis})
	require.NoError(t, err)
	_, err = f.svc.Reschedule(ctx, f.staff, appt.AppointmentID, newDate, newTime, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindState))
}

/* ===================== Expiry sweep ===================== */

func TestCancelExpiredSweepsStalePendingWithSystemActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.bookRequest(&f.doctorID)
	past := time.Now().Add(-2 * time.Hour)
	req.Date = time.Date(past.Year(), past.Month(), past.Day(), 0, 0, 0, 0, time.Local)
	req.Time = dbtime.From(past)

	appt, err := f.svc.Book(ctx, f.staff, req)
	require.NoError(t, err)

	expired, err := f.svc.ListExpiredPending(ctx, 60*time.Minute, 100)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, appt.AppointmentID, expired[0].AppointmentID)

	done, err := f.svc.CancelExpired(ctx, appt.AppointmentID)
	require.NoError(t, err)
	assert.True(t, done)

	got, err := f.svc.Get(ctx, f.admin, appt.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.AppointmentStatus)

	p := f.payment(t, appt.AppointmentID)
	assert.Equal(t, paymodel.PaymentStatusCancelled, p.PaymentStatus)
	require.NotNil(t, p.PaymentMethod)
	assert.Equal(t, paymodel.PaymentMethodNone, *p.PaymentMethod)

	var audit auditmodel.AuditLog
	require.NoError(t, f.db.First(&audit, "audit_action = ?", OpCancelExpired).Error)
	assert.Nil(t, audit.AuditUserID, "system sweeps carry no user")
	require.NotNil(t, audit.AuditClinicID)
	assert.Equal(t, f.clinicID, *audit.AuditClinicID)

	// The sweep broadcasts like a manual cancel.
	event := f.feed.last()
	require.NotNil(t, event)
	assert.Equal(t, realtime.EventAppointmentCancelled, event.Type)
	assert.Equal(t, f.clinicID, event.ClinicID)

	// Second sweep over the same id is a no-op.
	done, err = f.svc.CancelExpired(ctx, appt.AppointmentID)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestSweepSkipsConfirmedAndFresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Stale but confirmed.
	req := f.bookRequest(&f.doctorID)
	past := time.Now().Add(-3 * time.Hour)
	req.Date = time.Date(past.Year(), past.Month(), past.Day(), 0, 0, 0, 0, time.Local)
	req.Time = dbtime.From(past)
	confirmedAppt, err := f.svc.Book(ctx, f.staff, req)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.doctor, confirmedAppt.AppointmentID)
	require.NoError(t, err)

	// Pending but still inside the grace window.
	_, err = f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	expired, err := f.svc.ListExpiredPending(ctx, 60*time.Minute, 100)
	require.NoError(t, err)
	assert.Empty(t, expired)

	done, err := f.svc.CancelExpired(ctx, confirmedAppt.AppointmentID)
	require.NoError(t, err)
	assert.False(t, done)
}

/* ===================== Tenant scoping ===================== */

func TestAppointmentsAreClinicScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, f.staff, f.bookRequest(&f.doctorID))
	require.NoError(t, err)

	outsider := helper.Session{UserID: uuid.New(), ClinicID: uuid.New(), Role: constants.RoleAdmin}
	_, err = f.svc.Get(ctx, outsider, appt.AppointmentID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	rows, err := f.svc.List(ctx, outsider, ListFilter{Page: helper.Pagination{Page: 1, PerPage: 20}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
