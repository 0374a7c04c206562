// file: internals/features/treatments/service/treatment_service.go
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"miclinica_backend/internals/constants"
	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	"miclinica_backend/internals/features/treatments/model"
)

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

func requireAdmin(sess helper.Session) error {
	if sess.IsSuperadmin() || sess.Role == constants.RoleAdmin {
		return nil
	}
	return apperror.Forbidden("only an admin may manage the treatment catalog")
}

type UpsertRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description *string `json:"description,omitempty"`
	Price       int64   `json:"price" validate:"gte=0"`
}

func (s *Service) Create(ctx context.Context, sess helper.Session, req UpsertRequest) (*model.Treatment, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("treatment name is required")
	}
	if req.Price < 0 {
		return nil, apperror.Validation("treatment price cannot be negative")
	}

	row := model.Treatment{
		TreatmentClinicID:    sess.ClinicID,
		TreatmentName:        name,
		TreatmentDescription: req.Description,
		TreatmentPrice:       req.Price,
		TreatmentActive:      true,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Update changes name, description or price. Price changes do not touch
// existing appointments: line items carry their own snapshot.
func (s *Service) Update(ctx context.Context, sess helper.Session, id uuid.UUID, req UpsertRequest) (*model.Treatment, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	row, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if req.Price < 0 {
		return nil, apperror.Validation("treatment price cannot be negative")
	}

	updates := map[string]any{"treatment_price": req.Price}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["treatment_name"] = name
	}
	if req.Description != nil {
		updates["treatment_description"] = req.Description
	}
	if err := s.db.WithContext(ctx).Model(&model.Treatment{}).
		Where("treatment_id = ?", row.TreatmentID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id)
}

// SetActive toggles availability for new bookings.
func (s *Service) SetActive(ctx context.Context, sess helper.Session, id uuid.UUID, active bool) (*model.Treatment, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	row, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Treatment{}).
		Where("treatment_id = ?", row.TreatmentID).
		Update("treatment_active", active).Error; err != nil {
		return nil, err
	}
	row.TreatmentActive = active
	return row, nil
}

func (s *Service) Get(ctx context.Context, sess helper.Session, id uuid.UUID) (*model.Treatment, error) {
	q := s.db.WithContext(ctx).Where("treatment_id = ?", id)
	if !sess.IsSuperadmin() {
		q = q.Where("treatment_clinic_id = ?", sess.ClinicID)
	}
	var row model.Treatment
	if err := q.First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("treatment not found")
		}
		return nil, err
	}
	return &row, nil
}

type ListFilter struct {
	OnlyActive bool
	Search     string
	Page       helper.Pagination
}

func (s *Service) List(ctx context.Context, sess helper.Session, f ListFilter) ([]model.Treatment, error) {
	q := s.db.WithContext(ctx).Model(&model.Treatment{}).
		Where("treatment_clinic_id = ?", sess.ClinicID)
	if f.OnlyActive {
		q = q.Where("treatment_active = ?", true)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(treatment_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var rows []model.Treatment
	if err := q.Order("treatment_name ASC").
		Offset(f.Page.Offset()).Limit(f.Page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
