// file: internals/features/audit/service/audit_service.go
package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"miclinica_backend/internals/constants"
	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	"miclinica_backend/internals/features/audit/model"
)

type Entry struct {
	ClinicID    *uuid.UUID
	UserID      *uuid.UUID
	Action      string
	Table       string
	RecordID    *uuid.UUID
	Description string
	Meta        map[string]any
}

// Sink is the best-effort side-effect contract every state-changing
// operation writes through. Record never returns an error: a logging outage
// must never block a business operation.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	row := model.AuditLog{
		AuditClinicID: e.ClinicID,
		AuditUserID:   e.UserID,
		AuditAction:   e.Action,
		AuditTable:    e.Table,
		AuditRecordID: e.RecordID,
		AuditMeta:     e.Meta,
	}
	if e.Description != "" {
		row.AuditDescription = &e.Description
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("[AUDIT] append failed action=%s table=%s: %v", e.Action, e.Table, err)
	}
}

// NopSink discards entries. Used where no recorder is wired (tests).
type NopSink struct{}

func (NopSink) Record(ctx context.Context, e Entry) {}

/* ===================== Queries ===================== */

type SearchFilter struct {
	ClinicID *uuid.UUID
	UserID   *uuid.UUID
	Action   string
	Table    string
	Page     helper.Pagination
}

// Search is restricted: superadmin reads globally, admin reads their own
// clinic, everyone else is denied.
func (r *Recorder) Search(ctx context.Context, sess helper.Session, f SearchFilter) ([]model.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})

	switch sess.Role {
	case constants.RoleSuperadmin:
		if f.ClinicID != nil {
			q = q.Where("audit_clinic_id = ?", *f.ClinicID)
		}
	case constants.RoleAdmin:
		q = q.Where("audit_clinic_id = ?", sess.ClinicID)
	default:
		return nil, apperror.Forbidden("not allowed to read the audit log")
	}

	if f.UserID != nil {
		q = q.Where("audit_user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q = q.Where("audit_action = ?", f.Action)
	}
	if f.Table != "" {
		q = q.Where("audit_table = ?", f.Table)
	}

	var rows []model.AuditLog
	if err := q.Order("audit_created_at DESC").
		Offset(f.Page.Offset()).Limit(f.Page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Recorder) GetByID(ctx context.Context, sess helper.Session, id uuid.UUID) (*model.AuditLog, error) {
	var row model.AuditLog
	if err := r.db.WithContext(ctx).First(&row, "audit_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("audit record not found")
		}
		return nil, err
	}

	if sess.IsSuperadmin() {
		return &row, nil
	}
	if sess.Role == constants.RoleAdmin && row.AuditClinicID != nil && *row.AuditClinicID == sess.ClinicID {
		return &row, nil
	}
	return nil, apperror.Forbidden("not allowed to read this audit record")
}
