package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Data provenance for a person row: filled from the national-ID lookup
// service or typed in manually at the desk.
const (
	PersonSourceAPI    = "api"
	PersonSourceManual = "manual"
)

// Person is the clinic-independent identity registry, keyed by national ID
// (DNI). Patients and users both point at a person.
type Person struct {
	PersonID uuid.UUID `gorm:"column:person_id;type:uuid;primaryKey" json:"person_id"`

	PersonDNI              string     `gorm:"column:person_dni;type:varchar(12);not null;uniqueIndex" json:"person_dni"`
	PersonFirstNames       string     `gorm:"column:person_first_names;type:varchar(120);not null" json:"person_first_names"`
	PersonLastNamePaternal string     `gorm:"column:person_last_name_paternal;type:varchar(80)" json:"person_last_name_paternal"`
	PersonLastNameMaternal string     `gorm:"column:person_last_name_maternal;type:varchar(80)" json:"person_last_name_maternal"`
	PersonPhone            *string    `gorm:"column:person_phone;type:varchar(20)" json:"person_phone,omitempty"`
	PersonBirthDate        *time.Time `gorm:"column:person_birth_date;type:date" json:"person_birth_date,omitempty"`
	PersonSex              *string    `gorm:"column:person_sex;type:varchar(12)" json:"person_sex,omitempty"`
	PersonDataSource       string     `gorm:"column:person_data_source;type:varchar(10);not null;default:'manual'" json:"person_data_source"`

	CreatedAt time.Time `gorm:"column:person_created_at;autoCreateTime" json:"person_created_at"`
	UpdatedAt time.Time `gorm:"column:person_updated_at;autoUpdateTime" json:"person_updated_at"`
}

func (Person) TableName() string { return "persons" }

func (m *Person) BeforeCreate(tx *gorm.DB) error {
	if m.PersonID == uuid.Nil {
		m.PersonID = uuid.New()
	}
	return nil
}
