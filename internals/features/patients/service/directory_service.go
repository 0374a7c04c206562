// file: internals/features/patients/service/directory_service.go
package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	"miclinica_backend/internals/features/patients/model"
)

var dniPattern = regexp.MustCompile(`^[0-9]{8}$`)

/* ===================== Identity lookup ===================== */

// LookupResult is what an external identity provider returns for a DNI.
type LookupResult struct {
	DNI              string
	FirstNames       string
	LastNamePaternal string
	LastNameMaternal string
	BirthDate        *time.Time
	Sex              *string
}

// IdentityLookup resolves a national identity number against an external
// registry. Implementations may fail freely; the directory falls back to
// manually entered data.
type IdentityLookup interface {
	LookupDNI(ctx context.Context, dni string) (*LookupResult, error)
}

/* ===================== Directory ===================== */

// PersonInput is manually entered person data, used when no external
// lookup is available (or it fails).
type PersonInput struct {
	FirstNames       string     `json:"first_names"`
	LastNamePaternal string     `json:"last_name_paternal"`
	LastNameMaternal string     `json:"last_name_maternal"`
	Phone            *string    `json:"phone,omitempty"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	Sex              *string    `json:"sex,omitempty"`
}

// PatientRef identifies the patient of a booking: either an existing patient
// id, or a DNI (with optional manual person data as lookup fallback).
type PatientRef struct {
	PatientID *uuid.UUID   `json:"patient_id,omitempty"`
	DNI       string       `json:"dni,omitempty"`
	Person    *PersonInput `json:"person,omitempty"`
}

type Directory struct {
	db     *gorm.DB
	lookup IdentityLookup // optional
}

func NewDirectory(db *gorm.DB, lookup IdentityLookup) *Directory {
	return &Directory{db: db, lookup: lookup}
}

// ResolveOrCreateTx resolves a PatientRef to a patient of the clinic, creating
// the person and/or patient rows on first contact. Runs inside the caller's
// transaction.
func (d *Directory) ResolveOrCreateTx(ctx context.Context, tx *gorm.DB, clinicID uuid.UUID, ref PatientRef) (*model.Patient, error) {
	if ref.PatientID != nil {
		var patient model.Patient
		err := tx.WithContext(ctx).
			First(&patient, "patient_id = ? AND patient_clinic_id = ?", *ref.PatientID, clinicID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, apperror.NotFound("patient not found")
			}
			return nil, err
		}
		return &patient, nil
	}

	dni := strings.TrimSpace(ref.DNI)
	if !dniPattern.MatchString(dni) {
		return nil, apperror.Validation("dni must be exactly 8 digits")
	}

	person, err := d.findOrCreatePerson(ctx, tx, dni, ref.Person)
	if err != nil {
		return nil, err
	}

	var patient model.Patient
	err = tx.WithContext(ctx).
		First(&patient, "patient_clinic_id = ? AND patient_person_id = ?", clinicID, person.PersonID).Error
	switch {
	case err == nil:
		return &patient, nil
	case err == gorm.ErrRecordNotFound:
		patient = model.Patient{
			PatientClinicID: clinicID,
			PatientPersonID: person.PersonID,
		}
		if err := tx.WithContext(ctx).Create(&patient).Error; err != nil {
			return nil, err
		}
		return &patient, nil
	default:
		return nil, err
	}
}

func (d *Directory) findOrCreatePerson(ctx context.Context, tx *gorm.DB, dni string, manual *PersonInput) (*model.Person, error) {
	var person model.Person
	err := tx.WithContext(ctx).First(&person, "person_dni = ?", dni).Error
	if err == nil {
		return &person, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	// First contact: prefer the external registry, fall back to manual data.
	if d.lookup != nil {
		if res, lerr := d.lookup.LookupDNI(ctx, dni); lerr == nil && res != nil {
			person = model.Person{
				PersonDNI:              dni,
				PersonFirstNames:       res.FirstNames,
				PersonLastNamePaternal: res.LastNamePaternal,
				PersonLastNameMaternal: res.LastNameMaternal,
				PersonBirthDate:        res.BirthDate,
				PersonSex:              res.Sex,
				PersonDataSource:       model.PersonSourceAPI,
			}
			if err := tx.WithContext(ctx).Create(&person).Error; err != nil {
				return nil, err
			}
			return &person, nil
		} else if lerr != nil {
			log.Printf("[PATIENTS] identity lookup dni=%s failed: %v", dni, lerr)
		}
	}

	if manual == nil || strings.TrimSpace(manual.FirstNames) == "" {
		return nil, apperror.Validation("person data is required for an unknown dni")
	}
	person = model.Person{
		PersonDNI:              dni,
		PersonFirstNames:       strings.TrimSpace(manual.FirstNames),
		PersonLastNamePaternal: strings.TrimSpace(manual.LastNamePaternal),
		PersonLastNameMaternal: strings.TrimSpace(manual.LastNameMaternal),
		PersonPhone:            manual.Phone,
		PersonBirthDate:        manual.BirthDate,
		PersonSex:              manual.Sex,
		PersonDataSource:       model.PersonSourceManual,
	}
	if err := tx.WithContext(ctx).Create(&person).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

/* ===================== Queries ===================== */

// PatientRow is a patient joined with its person record.
type PatientRow struct {
	Patient model.Patient `json:"patient"`
	Person  model.Person  `json:"person"`
}

func (d *Directory) Get(ctx context.Context, sess helper.Session, patientID uuid.UUID) (*PatientRow, error) {
	var patient model.Patient
	q := d.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if !sess.IsSuperadmin() {
		q = q.Where("patient_clinic_id = ?", sess.ClinicID)
	}
	if err := q.First(&patient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("patient not found")
		}
		return nil, err
	}

	var person model.Person
	if err := d.db.WithContext(ctx).First(&person, "person_id = ?", patient.PatientPersonID).Error; err != nil {
		return nil, err
	}
	return &PatientRow{Patient: patient, Person: person}, nil
}

type ListFilter struct {
	Search string // matches dni or names
	Page   helper.Pagination
}

func (d *Directory) List(ctx context.Context, sess helper.Session, f ListFilter) ([]PatientRow, error) {
	q := d.db.WithContext(ctx).Model(&model.Patient{}).
		Joins("JOIN persons ON persons.person_id = patients.patient_person_id")
	if !sess.IsSuperadmin() {
		q = q.Where("patients.patient_clinic_id = ?", sess.ClinicID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"persons.person_dni LIKE ? OR LOWER(persons.person_first_names) LIKE ? OR LOWER(persons.person_last_name_paternal) LIKE ? OR LOWER(persons.person_last_name_maternal) LIKE ?",
			like, like, like, like,
		)
	}

	var patients []model.Patient
	if err := q.Order("patients.patient_created_at DESC").
		Offset(f.Page.Offset()).Limit(f.Page.PerPage).
		Find(&patients).Error; err != nil {
		return nil, err
	}

	rows := make([]PatientRow, 0, len(patients))
	for i := range patients {
		var person model.Person
		if err := d.db.WithContext(ctx).First(&person, "person_id = ?", patients[i].PatientPersonID).Error; err != nil {
			return nil, err
		}
		rows = append(rows, PatientRow{Patient: patients[i], Person: person})
	}
	return rows, nil
}
