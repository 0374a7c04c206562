// file: internals/features/medicalhistory/service/medicalhistory_service.go
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	"miclinica_backend/internals/features/medicalhistory/model"
)

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

/* ===================== Clinical records ===================== */

type RecordInput struct {
	ClinicID      uuid.UUID
	PatientID     uuid.UUID
	AppointmentID uuid.UUID
	Diagnosis     *string
	Observations  *string
}

// RecordTx writes the clinical note of an appointment inside the caller's
// transaction. One record per appointment; a second attempt is a conflict.
func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, in RecordInput) (*model.ClinicalRecord, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&model.ClinicalRecord{}).
		Where("clinical_record_appointment_id = ?", in.AppointmentID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperror.Conflict("clinical record already exists for this appointment")
	}

	row := model.ClinicalRecord{
		ClinicalRecordClinicID:      in.ClinicID,
		ClinicalRecordPatientID:     in.PatientID,
		ClinicalRecordAppointmentID: in.AppointmentID,
		ClinicalRecordDiagnosis:     in.Diagnosis,
		ClinicalRecordObservations:  in.Observations,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) GetByAppointment(ctx context.Context, sess helper.Session, appointmentID uuid.UUID) (*model.ClinicalRecord, error) {
	q := s.db.WithContext(ctx).Where("clinical_record_appointment_id = ?", appointmentID)
	if !sess.IsSuperadmin() {
		q = q.Where("clinical_record_clinic_id = ?", sess.ClinicID)
	}
	var row model.ClinicalRecord
	if err := q.First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("clinical record not found")
		}
		return nil, err
	}
	return &row, nil
}

// ListByPatient is the patient's chronological clinical history.
func (s *Service) ListByPatient(ctx context.Context, sess helper.Session, patientID uuid.UUID, page helper.Pagination) ([]model.ClinicalRecord, error) {
	q := s.db.WithContext(ctx).Model(&model.ClinicalRecord{}).
		Where("clinical_record_patient_id = ?", patientID)
	if !sess.IsSuperadmin() {
		q = q.Where("clinical_record_clinic_id = ?", sess.ClinicID)
	}
	var rows []model.ClinicalRecord
	if err := q.Order("clinical_record_created_at DESC").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

/* ===================== Condition catalog ===================== */

func (s *Service) CreateCondition(ctx context.Context, sess helper.Session, name string, description *string) (*model.MedicalCondition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("condition name is required")
	}
	row := model.MedicalCondition{
		ConditionClinicID:    sess.ClinicID,
		ConditionName:        name,
		ConditionDescription: description,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) ListConditions(ctx context.Context, sess helper.Session, page helper.Pagination) ([]model.MedicalCondition, error) {
	var rows []model.MedicalCondition
	if err := s.db.WithContext(ctx).
		Where("condition_clinic_id = ?", sess.ClinicID).
		Order("condition_name ASC").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FlagCondition marks a condition on a patient. Re-flagging the same
// condition is a conflict (the pair is unique).
func (s *Service) FlagCondition(ctx context.Context, sess helper.Session, patientID, conditionID uuid.UUID, notes *string) (*model.PatientCondition, error) {
	var condition model.MedicalCondition
	if err := s.db.WithContext(ctx).
		First(&condition, "condition_id = ? AND condition_clinic_id = ?", conditionID, sess.ClinicID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("condition not found")
		}
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.PatientCondition{}).
		Where("patient_condition_patient_id = ? AND patient_condition_condition_id = ?", patientID, conditionID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperror.Conflict("condition already flagged on this patient")
	}

	row := model.PatientCondition{
		PatientConditionPatientID:   patientID,
		PatientConditionConditionID: conditionID,
		PatientConditionNotes:       notes,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) ListPatientConditions(ctx context.Context, sess helper.Session, patientID uuid.UUID) ([]model.PatientCondition, error) {
	var rows []model.PatientCondition
	if err := s.db.WithContext(ctx).
		Where("patient_condition_patient_id = ?", patientID).
		Order("patient_condition_created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
