// file: internals/features/payments/service/payment_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"miclinica_backend/internals/constants"
	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	auditsvc "miclinica_backend/internals/features/audit/service"
	"miclinica_backend/internals/features/payments/model"
	"miclinica_backend/internals/features/realtime"
)

type Service struct {
	db     *gorm.DB
	audit  auditsvc.Sink
	events realtime.Publisher
}

func New(db *gorm.DB) *Service {
	return &Service{db: db, audit: auditsvc.NopSink{}, events: realtime.NopPublisher{}}
}

// WithObservers attaches the audit sink and the realtime feed. Lifecycle
// methods stay silent here; the appointment service reports those. Only
// operations owned by this service (manual adjustment) emit directly.
func (s *Service) WithObservers(audit auditsvc.Sink, events realtime.Publisher) *Service {
	if audit != nil {
		s.audit = audit
	}
	if events != nil {
		s.events = events
	}
	return s
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

/* ===================== Lifecycle (transactional) ===================== */
/* These run inside the appointment transaction and take tx explicitly.  */

// OpenForAppointmentTx opens the derived payment of a freshly booked
// appointment. Idempotent: if a payment already exists for the appointment
// it is returned unchanged.
func (s *Service) OpenForAppointmentTx(ctx context.Context, tx *gorm.DB, clinicID, patientID, appointmentID uuid.UUID, total int64) (*model.Payment, error) {
	var existing model.Payment
	err := tx.WithContext(ctx).
		First(&existing, "payment_appointment_id = ?", appointmentID).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	row := model.Payment{
		PaymentClinicID:      clinicID,
		PaymentPatientID:     patientID,
		PaymentAppointmentID: appointmentID,
		PaymentAmount:        total,
		PaymentStatus:        model.PaymentStatusPending,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent open; the winner's row is
			// the payment.
			if rerr := tx.WithContext(ctx).
				First(&existing, "payment_appointment_id = ?", appointmentID).Error; rerr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &row, nil
}

// ResyncTx mirrors a new line-item total onto the payment. Only a pending
// payment follows the appointment; paid, cancelled and frozen payments are
// left alone (guarded update, zero rows is a no-op).
func (s *Service) ResyncTx(ctx context.Context, tx *gorm.DB, clinicID, appointmentID uuid.UUID, newTotal int64) error {
	if newTotal < 0 {
		return apperror.Validation("payment amount cannot be negative")
	}
	return tx.WithContext(ctx).Model(&model.Payment{}).
		Where("payment_appointment_id = ? AND payment_clinic_id = ? AND payment_status = ?",
			appointmentID, clinicID, model.PaymentStatusPending).
		Update("payment_amount", newTotal).Error
}

// MarkPaidTx collects the payment. Fails unless the payment is still
// pending; the status guard on the UPDATE is the arbiter under concurrency.
func (s *Service) MarkPaidTx(ctx context.Context, tx *gorm.DB, clinicID, appointmentID uuid.UUID, method string) (*model.Payment, error) {
	switch method {
	case model.PaymentMethodCash, model.PaymentMethodCard, model.PaymentMethodTransfer, model.PaymentMethodGateway:
	case "":
		return nil, apperror.Validation("payment method is required")
	default:
		return nil, apperror.Validation("unknown payment method: " + method)
	}

	row, err := s.getByAppointmentTx(ctx, tx, clinicID, appointmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("payment_id = ? AND payment_status = ?", row.PaymentID, model.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": model.PaymentStatusPaid,
			"payment_method": method,
			"payment_date":   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperror.State("payment is not pending")
	}

	row.PaymentStatus = model.PaymentStatusPaid
	row.PaymentMethod = &method
	row.PaymentDate = &now
	return row, nil
}

// CancelTx voids the payment when its appointment is cancelled. A paid
// payment is money already in the drawer and can never be voided here; that
// is a conflict and rolls back the whole cancellation.
func (s *Service) CancelTx(ctx context.Context, tx *gorm.DB, clinicID, appointmentID uuid.UUID) (*model.Payment, error) {
	row, err := s.getByAppointmentTx(ctx, tx, clinicID, appointmentID)
	if err != nil {
		return nil, err
	}
	if row.IsPaid() {
		return nil, apperror.Conflict("payment has already been collected")
	}
	if row.PaymentStatus == model.PaymentStatusCancelled {
		return row, nil
	}

	now := time.Now()
	res := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("payment_id = ? AND payment_status = ?", row.PaymentID, model.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": model.PaymentStatusCancelled,
			"payment_method": model.PaymentMethodNone,
			"payment_date":   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Raced into paid between the read and the update.
		return nil, apperror.Conflict("payment has already been collected")
	}

	method := model.PaymentMethodNone
	row.PaymentStatus = model.PaymentStatusCancelled
	row.PaymentMethod = &method
	row.PaymentDate = &now
	return row, nil
}

func (s *Service) getByAppointmentTx(ctx context.Context, tx *gorm.DB, clinicID, appointmentID uuid.UUID) (*model.Payment, error) {
	var row model.Payment
	err := tx.WithContext(ctx).
		First(&row, "payment_appointment_id = ? AND payment_clinic_id = ?", appointmentID, clinicID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("payment not found for appointment")
		}
		return nil, err
	}
	return &row, nil
}

/* ===================== Manual adjustment ===================== */

// ManualAdjust lets an admin override the amount of a pending payment
// (negotiated discounts). A later line-item resync overwrites the override;
// the last write before the freeze point wins.
func (s *Service) ManualAdjust(ctx context.Context, sess helper.Session, appointmentID uuid.UUID, newAmount int64) (*model.Payment, error) {
	if !sess.IsSuperadmin() && sess.Role != constants.RoleAdmin {
		return nil, apperror.Forbidden("only an admin may adjust a payment amount")
	}
	if newAmount < 0 {
		return nil, apperror.Validation("payment amount cannot be negative")
	}

	var out *model.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clinicID := sess.ClinicID
		if sess.IsSuperadmin() {
			var row model.Payment
			if err := tx.First(&row, "payment_appointment_id = ?", appointmentID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return apperror.NotFound("payment not found for appointment")
				}
				return err
			}
			clinicID = row.PaymentClinicID
		}

		row, err := s.getByAppointmentTx(ctx, tx, clinicID, appointmentID)
		if err != nil {
			return err
		}

		res := tx.Model(&model.Payment{}).
			Where("payment_id = ? AND payment_status = ?", row.PaymentID, model.PaymentStatusPending).
			Update("payment_amount", newAmount)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.State("payment is no longer pending")
		}

		row.PaymentAmount = newAmount
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditsvc.Entry{
		ClinicID:    &out.PaymentClinicID,
		UserID:      sess.ActorID(),
		Action:      "payment.adjust_amount",
		Table:       "payments",
		RecordID:    &out.PaymentID,
		Description: "payment amount manually adjusted",
		Meta:        map[string]any{"amount": newAmount},
	})
	s.events.Publish(realtime.Event{
		Type:     realtime.EventPaymentAdjusted,
		ClinicID: out.PaymentClinicID,
		Payload:  out,
	})
	return out, nil
}

/* ===================== Queries ===================== */

func (s *Service) GetByAppointment(ctx context.Context, sess helper.Session, appointmentID uuid.UUID) (*model.Payment, error) {
	q := s.db.WithContext(ctx).Where("payment_appointment_id = ?", appointmentID)
	if !sess.IsSuperadmin() {
		q = q.Where("payment_clinic_id = ?", sess.ClinicID)
	}
	var row model.Payment
	if err := q.First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("payment not found for appointment")
		}
		return nil, err
	}
	return &row, nil
}

type ListFilter struct {
	Status    string
	Method    string
	PatientID *uuid.UUID
	AmountMin *int64
	AmountMax *int64
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      helper.Pagination
}

func (s *Service) List(ctx context.Context, sess helper.Session, f ListFilter) ([]model.Payment, error) {
	q := s.db.WithContext(ctx).Model(&model.Payment{})
	if !sess.IsSuperadmin() {
		q = q.Where("payment_clinic_id = ?", sess.ClinicID)
	}
	if f.Status != "" {
		q = q.Where("payment_status = ?", f.Status)
	}
	if f.Method != "" {
		q = q.Where("payment_method = ?", f.Method)
	}
	if f.PatientID != nil {
		q = q.Where("payment_patient_id = ?", *f.PatientID)
	}
	if f.AmountMin != nil {
		q = q.Where("payment_amount >= ?", *f.AmountMin)
	}
	if f.AmountMax != nil {
		q = q.Where("payment_amount <= ?", *f.AmountMax)
	}
	if f.DateFrom != nil {
		q = q.Where("payment_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("payment_date < ?", *f.DateTo)
	}

	var rows []model.Payment
	if err := q.Order("payment_created_at DESC").
		Offset(f.Page.Offset()).Limit(f.Page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DailyTotal sums collected payments of a clinic for one calendar day
// (cash-desk closing report).
func (s *Service) DailyTotal(ctx context.Context, sess helper.Session, day time.Time) (int64, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)

	var total int64
	err := s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("payment_clinic_id = ? AND payment_status = ? AND payment_date >= ? AND payment_date < ?",
			sess.ClinicID, model.PaymentStatusPaid, from, to).
		Select("COALESCE(SUM(payment_amount), 0)").
		Scan(&total).Error
	return total, err
}
