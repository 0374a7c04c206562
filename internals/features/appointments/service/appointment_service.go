// file: internals/features/appointments/service/appointment_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"
	"miclinica_backend/internals/helpers/dbtime"

	"miclinica_backend/internals/constants"
	"miclinica_backend/internals/features/appointments/model"
	auditsvc "miclinica_backend/internals/features/audit/service"
	historysvc "miclinica_backend/internals/features/medicalhistory/service"
	patientsvc "miclinica_backend/internals/features/patients/service"
	paymodel "miclinica_backend/internals/features/payments/model"
	paysvc "miclinica_backend/internals/features/payments/service"
	"miclinica_backend/internals/features/realtime"
	treatmodel "miclinica_backend/internals/features/treatments/model"
	usermodel "miclinica_backend/internals/features/users/model"
)

// Service drives the appointment state machine and keeps the derived payment
// in lockstep. Every transition is a status-guarded UPDATE inside one
// transaction; audit and realtime events are emitted after commit.
type Service struct {
	db        *gorm.DB
	payments  *paysvc.Service
	directory *patientsvc.Directory
	history   *historysvc.Service
	audit     auditsvc.Sink
	events    realtime.Publisher
}

func New(
	db *gorm.DB,
	payments *paysvc.Service,
	directory *patientsvc.Directory,
	history *historysvc.Service,
	audit auditsvc.Sink,
	events realtime.Publisher,
) *Service {
	if audit == nil {
		audit = auditsvc.NopSink{}
	}
	if events == nil {
		events = realtime.NopPublisher{}
	}
	return &Service{
		db:        db,
		payments:  payments,
		directory: directory,
		history:   history,
		audit:     audit,
		events:    events,
	}
}

/* ===================== Internal helpers ===================== */

func (s *Service) getScoped(ctx context.Context, db *gorm.DB, sess helper.Session, id uuid.UUID) (*model.Appointment, error) {
	q := db.WithContext(ctx).Where("appointment_id = ?", id)
	if !sess.IsSuperadmin() && !sess.IsSystem() {
		q = q.Where("appointment_clinic_id = ?", sess.ClinicID)
	}
	var appt model.Appointment
	if err := q.First(&appt).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("appointment not found")
		}
		return nil, err
	}
	return &appt, nil
}

// transition performs the status-guarded UPDATE that is the concurrency
// arbiter for every state change. Zero rows affected means another writer
// moved the appointment first.
func transition(ctx context.Context, tx *gorm.DB, appt *model.Appointment, from []string, updates map[string]any) error {
	res := tx.WithContext(ctx).Model(&model.Appointment{}).
		Where("appointment_id = ? AND appointment_status IN ?", appt.AppointmentID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.State("appointment is no longer " + appt.AppointmentStatus)
	}
	return nil
}

func (s *Service) validateDoctor(ctx context.Context, tx *gorm.DB, clinicID, doctorID uuid.UUID) error {
	var count int64
	err := tx.WithContext(ctx).Model(&usermodel.User{}).
		Where("user_id = ? AND user_clinic_id = ? AND user_role = ? AND user_active = ?",
			doctorID, clinicID, constants.RoleDoctor, true).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return apperror.Validation("doctor not found in this clinic")
	}
	return nil
}

// replaceLineItems rewrites the line items of an appointment and returns the
// new total. Each treatment must belong to the clinic; an explicit applied
// price overrides the catalog price (discounts), otherwise the catalog price
// is snapshotted.
func (s *Service) replaceLineItems(ctx context.Context, tx *gorm.DB, appt *model.Appointment, items []LineItemInput) (int64, error) {
	if len(items) == 0 {
		return 0, apperror.Validation("at least one treatment is required")
	}

	if err := tx.WithContext(ctx).
		Where("appointment_treatment_appointment_id = ?", appt.AppointmentID).
		Delete(&model.AppointmentTreatment{}).Error; err != nil {
		return 0, err
	}

	var total int64
	for _, item := range items {
		var treatment treatmodel.Treatment
		err := tx.WithContext(ctx).
			First(&treatment, "treatment_id = ? AND treatment_clinic_id = ?", item.TreatmentID, appt.AppointmentClinicID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return 0, apperror.Validation("treatment not found in this clinic")
			}
			return 0, err
		}
		if !treatment.TreatmentActive {
			return 0, apperror.Validation("treatment " + treatment.TreatmentName + " is inactive")
		}

		price := treatment.TreatmentPrice
		if item.AppliedPrice != nil {
			if *item.AppliedPrice < 0 {
				return 0, apperror.Validation("applied price cannot be negative")
			}
			price = *item.AppliedPrice
		}

		row := model.AppointmentTreatment{
			AppointmentTreatmentAppointmentID: appt.AppointmentID,
			AppointmentTreatmentTreatmentID:   treatment.TreatmentID,
			AppointmentTreatmentAppliedPrice:  price,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return 0, err
		}
		total += price
	}
	return total, nil
}

var eventByOp = map[string]string{
	OpBook:             realtime.EventAppointmentBooked,
	OpConfirm:          realtime.EventAppointmentConfirmed,
	OpReassign:         realtime.EventAppointmentReassigned,
	OpMarkReady:        realtime.EventAppointmentReady,
	OpFinalize:         realtime.EventAppointmentFinalized,
	OpCancel:           realtime.EventAppointmentCancelled,
	OpCancelExpired:    realtime.EventAppointmentCancelled,
	OpReschedule:       realtime.EventAppointmentRescheduled,
	OpUpdateTreatments: realtime.EventPaymentAdjusted,
}

// emit records the audit entry and publishes the realtime event. Called
// after the transaction committed; failures never reach the caller.
func (s *Service) emit(ctx context.Context, sess helper.Session, appt *model.Appointment, op, description string, meta map[string]any) {
	clinicID := appt.AppointmentClinicID
	recordID := appt.AppointmentID
	s.audit.Record(ctx, auditsvc.Entry{
		ClinicID:    &clinicID,
		UserID:      sess.ActorID(),
		Action:      op,
		Table:       "appointments",
		RecordID:    &recordID,
		Description: description,
		Meta:        meta,
	})

	if eventType, ok := eventByOp[op]; ok {
		s.events.Publish(realtime.Event{
			Type:     eventType,
			ClinicID: appt.AppointmentClinicID,
			Payload:  appt,
		})
	}
}

/* ===================== Book ===================== */

type LineItemInput struct {
	TreatmentID  uuid.UUID `json:"treatment_id"`
	AppliedPrice *int64    `json:"applied_price,omitempty"`
}

type BookRequest struct {
	Patient    patientsvc.PatientRef `json:"patient"`
	DoctorID   *uuid.UUID            `json:"doctor_id,omitempty"`
	Date       time.Time             `json:"date"`
	Time       dbtime.Tod            `json:"time"`
	Details    *string               `json:"details,omitempty"`
	Treatments []LineItemInput       `json:"treatments"`
}

// Book creates the appointment with its line items and opens the derived
// payment, all in one transaction. Without a doctor the appointment lands in
// reassign instead of pending.
func (s *Service) Book(ctx context.Context, sess helper.Session, req BookRequest) (*model.Appointment, error) {
	if err := authorize(sess, OpBook, nil); err != nil {
		return nil, err
	}
	if sess.ClinicID == uuid.Nil {
		return nil, apperror.Validation("booking requires a clinic scope")
	}
	if req.Date.IsZero() {
		return nil, apperror.Validation("appointment date is required")
	}
	if len(req.Treatments) == 0 {
		return nil, apperror.Validation("at least one treatment is required")
	}

	var appt *model.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		patient, err := s.directory.ResolveOrCreateTx(ctx, tx, sess.ClinicID, req.Patient)
		if err != nil {
			return err
		}

		status := model.StatusReassign
		if req.DoctorID != nil {
			if err := s.validateDoctor(ctx, tx, sess.ClinicID, *req.DoctorID); err != nil {
				return err
			}
			status = model.StatusPending
		}

		row := model.Appointment{
			AppointmentClinicID:  sess.ClinicID,
			AppointmentPatientID: patient.PatientID,
			AppointmentDoctorID:  req.DoctorID,
			AppointmentDate:      req.Date,
			AppointmentTime:      req.Time,
			AppointmentStatus:    status,
			AppointmentDetails:   req.Details,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		total, err := s.replaceLineItems(ctx, tx, &row, req.Treatments)
		if err != nil {
			return err
		}

		if _, err := s.payments.OpenForAppointmentTx(ctx, tx, sess.ClinicID, patient.PatientID, row.AppointmentID, total); err != nil {
			return err
		}

		appt = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, sess, appt, OpBook, "appointment booked", map[string]any{
		"status": appt.AppointmentStatus,
	})
	return appt, nil
}

/* ===================== Transitions ===================== */

// Confirm moves pending to confirmed. Only the assigned doctor (or an
// admin) may confirm.
func (s *Service) Confirm(ctx context.Context, sess helper.Session, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sess, OpConfirm, appt); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return transition(ctx, tx, appt, []string{model.StatusPending}, map[string]any{
			"appointment_status": model.StatusConfirmed,
		})
	})
	if err != nil {
		return nil, err
	}

	appt.AppointmentStatus = model.StatusConfirmed
	s.emit(ctx, sess, appt, OpConfirm, "appointment confirmed", nil)
	return appt, nil
}

// Reassign sets or clears the doctor while the appointment is still waiting
// to be confirmed. Clearing the doctor parks it in reassign; setting one
// puts it back in pending.
func (s *Service) Reassign(ctx context.Context, sess helper.Session, id uuid.UUID, doctorID *uuid.UUID) (*model.Appointment, error) {
	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sess, OpReassign, appt); err != nil {
		return nil, err
	}

	newStatus := model.StatusReassign
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if doctorID != nil {
			if err := s.validateDoctor(ctx, tx, appt.AppointmentClinicID, *doctorID); err != nil {
				return err
			}
			newStatus = model.StatusPending
		}
		return transition(ctx, tx, appt,
			[]string{model.StatusPending, model.StatusReassign},
			map[string]any{
				"appointment_doctor_id": doctorID,
				"appointment_status":    newStatus,
			})
	})
	if err != nil {
		return nil, err
	}

	appt.AppointmentDoctorID = doctorID
	appt.AppointmentStatus = newStatus
	s.emit(ctx, sess, appt, OpReassign, "appointment reassigned", nil)
	return appt, nil
}

type ClinicalNotes struct {
	Diagnosis    *string `json:"diagnosis,omitempty"`
	Observations *string `json:"observations,omitempty"`
}

func (n ClinicalNotes) empty() bool {
	has := func(p *string) bool { return p != nil && *p != "" }
	return !has(n.Diagnosis) && !has(n.Observations)
}

// MarkReadyForPayment ends the attention: the clinical note is written, the
// appointment moves to ready_for_payment, and the payment amount freezes.
func (s *Service) MarkReadyForPayment(ctx context.Context, sess helper.Session, id uuid.UUID, notes ClinicalNotes) (*model.Appointment, error) {
	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sess, OpMarkReady, appt); err != nil {
		return nil, err
	}
	if notes.empty() {
		return nil, apperror.Validation("a diagnosis or observation is required")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.history.RecordTx(ctx, tx, historysvc.RecordInput{
			ClinicID:      appt.AppointmentClinicID,
			PatientID:     appt.AppointmentPatientID,
			AppointmentID: appt.AppointmentID,
			Diagnosis:     notes.Diagnosis,
			Observations:  notes.Observations,
		}); err != nil {
			return err
		}
		return transition(ctx, tx, appt,
			[]string{model.StatusConfirmed, model.StatusPending},
			map[string]any{"appointment_status": model.StatusReadyForPayment})
	})
	if err != nil {
		return nil, err
	}

	appt.AppointmentStatus = model.StatusReadyForPayment
	s.emit(ctx, sess, appt, OpMarkReady, "appointment ready for payment", nil)
	return appt, nil
}

// Finalize collects the payment and closes the appointment. Only valid from
// ready_for_payment; the payment must still be pending.
func (s *Service) Finalize(ctx context.Context, sess helper.Session, id uuid.UUID, method string) (*model.Appointment, error) {
	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sess, OpFinalize, appt); err != nil {
		return nil, err
	}
	if appt.AppointmentStatus != model.StatusReadyForPayment {
		return nil, apperror.State("appointment is not ready for payment")
	}

	var payment *paymodel.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(ctx, tx, appt,
			[]string{model.StatusReadyForPayment},
			map[string]any{"appointment_status": model.StatusFinalized}); err != nil {
			return err
		}
		var perr error
		payment, perr = s.payments.MarkPaidTx(ctx, tx, appt.AppointmentClinicID, appt.AppointmentID, method)
		return perr
	})
	if err != nil {
		return nil, err
	}

	appt.AppointmentStatus = model.StatusFinalized
	s.emit(ctx, sess, appt, OpFinalize, "appointment finalized", map[string]any{
		"method": method,
		"amount": payment.PaymentAmount,
	})
	return appt, nil
}

// Cancel voids the appointment and its payment from any non-terminal state.
// A collected payment blocks cancellation with a conflict.
func (s *Service) Cancel(ctx context.Context, sess helper.Session, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sess, OpCancel, appt); err != nil {
		return nil, err
	}
	if appt.IsTerminal() {
		return nil, apperror.State("appointment is already " + appt.AppointmentStatus)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.payments.CancelTx(ctx, tx, appt.AppointmentClinicID, appt.AppointmentID); err != nil {
			return err
		}
		return transition(ctx, tx, appt,
			[]string{model.StatusPending, model.StatusReassign, model.StatusConfirmed, model.StatusReadyForPayment},
			map[string]any{"appointment_status": model.StatusCancelled})
	})
	if err != nil {
		return nil, err
	}

	appt.AppointmentStatus = model.StatusCancelled
	s.emit(ctx, sess, appt, OpCancel, "appointment cancelled", nil)
	return appt, nil
}

// CancelExpired is the sweeper's cancellation path. It only acts on pending
// appointments and reports whether it did anything; an appointment that
// moved on since the sweep snapshot is simply skipped.
func (s *Service) CancelExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	sess := helper.SystemSession()

	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	if appt.AppointmentStatus != model.StatusPending {
		return false, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Appointment{}).
			Where("appointment_id = ? AND appointment_status = ?", appt.AppointmentID, model.StatusPending).
			Update("appointment_status", model.StatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.State("appointment is no longer pending")
		}
		_, cerr := s.payments.CancelTx(ctx, tx, appt.AppointmentClinicID, appt.AppointmentID)
		return cerr
	})
	if err != nil {
		if apperror.IsKind(err, apperror.KindState) {
			return false, nil
		}
		return false, err
	}

	appt.AppointmentStatus = model.StatusCancelled
	s.emit(ctx, sess, appt, OpCancelExpired, "appointment cancelled after confirmation window expired", map[string]any{
		"scheduled_for": appt.StartsAt(),
	})
	return true, nil
}

// Reschedule moves the appointment to a new date/time, leaving a history row
// behind. Only editable appointments can move.
func (s *Service) Reschedule(ctx context.Context, sess helper.Session, id uuid.UUID, newDate time.Time, newTime dbtime.Tod, reason *string) (*model.Appointment, error) {
	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sess, OpReschedule, appt); err != nil {
		return nil, err
	}
	if !appt.IsEditable() {
		return nil, apperror.State("appointment can no longer be rescheduled")
	}
	if newDate.IsZero() {
		return nil, apperror.Validation("new date is required")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trail := model.AppointmentHistory{
			AppointmentHistoryAppointmentID: appt.AppointmentID,
			AppointmentHistoryPreviousDate:  appt.AppointmentDate,
			AppointmentHistoryPreviousTime:  appt.AppointmentTime,
			AppointmentHistoryNewDate:       newDate,
			AppointmentHistoryNewTime:       newTime,
			AppointmentHistoryUserID:        sess.ActorID(),
			AppointmentHistoryReason:        reason,
		}
		if err := tx.Create(&trail).Error; err != nil {
			return err
		}
		return transition(ctx, tx, appt,
			[]string{model.StatusPending, model.StatusReassign, model.StatusConfirmed},
			map[string]any{
				"appointment_date": newDate,
				"appointment_time": newTime,
			})
	})
	if err != nil {
		return nil, err
	}

	appt.AppointmentDate = newDate
	appt.AppointmentTime = newTime
	s.emit(ctx, sess, appt, OpReschedule, "appointment rescheduled", nil)
	return appt, nil
}

// UpdateTreatments replaces the line items and resyncs the pending payment.
// Frozen appointments (ready_for_payment onward) reject the edit.
func (s *Service) UpdateTreatments(ctx context.Context, sess helper.Session, id uuid.UUID, items []LineItemInput) (*model.Appointment, error) {
	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sess, OpUpdateTreatments, appt); err != nil {
		return nil, err
	}
	if !appt.IsEditable() {
		return nil, apperror.State("treatments can no longer be changed")
	}

	var total int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var terr error
		total, terr = s.replaceLineItems(ctx, tx, appt, items)
		if terr != nil {
			return terr
		}
		return s.payments.ResyncTx(ctx, tx, appt.AppointmentClinicID, appt.AppointmentID, total)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, sess, appt, OpUpdateTreatments, "appointment treatments updated", map[string]any{
		"total": total,
	})
	return appt, nil
}

/* ===================== Queries ===================== */

func (s *Service) Get(ctx context.Context, sess helper.Session, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.getScoped(ctx, s.db, sess, id)
	if err != nil {
		return nil, err
	}
	// Doctors only see their own schedule.
	if sess.Role == constants.RoleDoctor {
		if appt.AppointmentDoctorID == nil || *appt.AppointmentDoctorID != sess.UserID {
			return nil, apperror.NotFound("appointment not found")
		}
	}
	return appt, nil
}

type ListFilter struct {
	Status    string
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      helper.Pagination
}

func (s *Service) List(ctx context.Context, sess helper.Session, f ListFilter) ([]model.Appointment, error) {
	q := s.db.WithContext(ctx).Model(&model.Appointment{})
	if !sess.IsSuperadmin() {
		q = q.Where("appointment_clinic_id = ?", sess.ClinicID)
	}
	if sess.Role == constants.RoleDoctor {
		q = q.Where("appointment_doctor_id = ?", sess.UserID)
	} else if f.DoctorID != nil {
		q = q.Where("appointment_doctor_id = ?", *f.DoctorID)
	}
	if f.Status != "" {
		q = q.Where("appointment_status = ?", f.Status)
	}
	if f.PatientID != nil {
		q = q.Where("appointment_patient_id = ?", *f.PatientID)
	}
	if f.DateFrom != nil {
		q = q.Where("appointment_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("appointment_date <= ?", *f.DateTo)
	}

	var rows []model.Appointment
	if err := q.Order("appointment_date DESC, appointment_time DESC").
		Offset(f.Page.Offset()).Limit(f.Page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) ListItems(ctx context.Context, sess helper.Session, id uuid.UUID) ([]model.AppointmentTreatment, error) {
	if _, err := s.Get(ctx, sess, id); err != nil {
		return nil, err
	}
	var rows []model.AppointmentTreatment
	if err := s.db.WithContext(ctx).
		Where("appointment_treatment_appointment_id = ?", id).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) ListHistory(ctx context.Context, sess helper.Session, id uuid.UUID) ([]model.AppointmentHistory, error) {
	if _, err := s.Get(ctx, sess, id); err != nil {
		return nil, err
	}
	var rows []model.AppointmentHistory
	if err := s.db.WithContext(ctx).
		Where("appointment_history_appointment_id = ?", id).
		Order("appointment_history_created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListExpiredPending returns pending appointments whose scheduled start plus
// the grace window is already in the past. The final time comparison happens
// in Go so the query stays portable across drivers.
func (s *Service) ListExpiredPending(ctx context.Context, grace time.Duration, limit int) ([]model.Appointment, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var candidates []model.Appointment
	if err := s.db.WithContext(ctx).
		Where("appointment_status = ? AND appointment_date <= ?", model.StatusPending, today).
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	expired := candidates[:0]
	for i := range candidates {
		if candidates[i].StartsAt().Add(grace).Before(now) {
			expired = append(expired, candidates[i])
		}
	}
	return expired, nil
}
