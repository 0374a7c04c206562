// file: internals/features/clinics/service/clinic_service.go
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	"miclinica_backend/internals/features/clinics/model"
)

// Service manages clinic tenants. Creation and deactivation are superadmin
// operations; a clinic admin may only touch their own row.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

type UpsertRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=120"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

func (s *Service) Create(ctx context.Context, sess helper.Session, req UpsertRequest) (*model.Clinic, error) {
	if !sess.IsSuperadmin() {
		return nil, apperror.Forbidden("only superadmin may create clinics")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("clinic name is required")
	}

	row := model.Clinic{
		ClinicName:    name,
		ClinicAddress: req.Address,
		ClinicPhone:   req.Phone,
		ClinicActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) Update(ctx context.Context, sess helper.Session, id uuid.UUID, req UpsertRequest) (*model.Clinic, error) {
	if !sess.IsSuperadmin() && sess.ClinicID != id {
		return nil, apperror.Forbidden("not allowed to update this clinic")
	}
	row, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["clinic_name"] = name
	}
	if req.Address != nil {
		updates["clinic_address"] = req.Address
	}
	if req.Phone != nil {
		updates["clinic_phone"] = req.Phone
	}
	if len(updates) == 0 {
		return row, nil
	}
	if err := s.db.WithContext(ctx).Model(&model.Clinic{}).
		Where("clinic_id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id)
}

// SetActive suspends or restores a tenant. Suspension blocks logins, it does
// not delete data.
func (s *Service) SetActive(ctx context.Context, sess helper.Session, id uuid.UUID, active bool) (*model.Clinic, error) {
	if !sess.IsSuperadmin() {
		return nil, apperror.Forbidden("only superadmin may change clinic availability")
	}
	row, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Clinic{}).
		Where("clinic_id = ?", id).
		Update("clinic_active", active).Error; err != nil {
		return nil, err
	}
	row.ClinicActive = active
	return row, nil
}

func (s *Service) Get(ctx context.Context, sess helper.Session, id uuid.UUID) (*model.Clinic, error) {
	if !sess.IsSuperadmin() && sess.ClinicID != id {
		return nil, apperror.NotFound("clinic not found")
	}
	var row model.Clinic
	if err := s.db.WithContext(ctx).First(&row, "clinic_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("clinic not found")
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) List(ctx context.Context, sess helper.Session, page helper.Pagination) ([]model.Clinic, error) {
	if !sess.IsSuperadmin() {
		return nil, apperror.Forbidden("only superadmin may list clinics")
	}
	var rows []model.Clinic
	if err := s.db.WithContext(ctx).
		Order("clinic_created_at DESC").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
