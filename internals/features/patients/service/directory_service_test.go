package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"miclinica_backend/internals/helpers/apperror"

	"miclinica_backend/internals/features/patients/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Person{}, &model.Patient{}))
	return db
}

type stubLookup struct {
	result *LookupResult
	err    error
	calls  int
}

func (s *stubLookup) LookupDNI(ctx context.Context, dni string) (*LookupResult, error) {
	s.calls++
	return s.result, s.err
}

func TestResolveRejectsBadDNI(t *testing.T) {
	db := newTestDB(t)
	d := NewDirectory(db, nil)

	for _, dni := range []string{"", "1234", "1234567a", "123456789"} {
		_, err := d.ResolveOrCreateTx(context.Background(), db, uuid.New(), PatientRef{DNI: dni})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation), "dni %q", dni)
	}
}

func TestResolveCreatesPersonFromManualData(t *testing.T) {
	db := newTestDB(t)
	d := NewDirectory(db, nil)
	clinicID := uuid.New()

	ref := PatientRef{
		DNI: "87654321",
		Person: &PersonInput{
			FirstNames:       "Jose",
			LastNamePaternal: "Paredes",
		},
	}
	patient, err := d.ResolveOrCreateTx(context.Background(), db, clinicID, ref)
	require.NoError(t, err)

	var person model.Person
	require.NoError(t, db.First(&person, "person_dni = ?", "87654321").Error)
	assert.Equal(t, model.PersonSourceManual, person.PersonDataSource)
	assert.Equal(t, person.PersonID, patient.PatientPersonID)

	// Same DNI again: same patient, no duplicate person.
	again, err := d.ResolveOrCreateTx(context.Background(), db, clinicID, PatientRef{DNI: "87654321"})
	require.NoError(t, err)
	assert.Equal(t, patient.PatientID, again.PatientID)

	var count int64
	require.NoError(t, db.Model(&model.Person{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveUnknownDNIWithoutDataFails(t *testing.T) {
	db := newTestDB(t)
	d := NewDirectory(db, nil)

	_, err := d.ResolveOrCreateTx(context.Background(), db, uuid.New(), PatientRef{DNI: "11112222"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestResolvePrefersRegistryLookup(t *testing.T) {
	db := newTestDB(t)
	lookup := &stubLookup{result: &LookupResult{
		DNI:              "44445555",
		FirstNames:       "Rosa",
		LastNamePaternal: "Huaman",
	}}
	d := NewDirectory(db, lookup)

	_, err := d.ResolveOrCreateTx(context.Background(), db, uuid.New(), PatientRef{DNI: "44445555"})
	require.NoError(t, err)
	assert.Equal(t, 1, lookup.calls)

	var person model.Person
	require.NoError(t, db.First(&person, "person_dni = ?", "44445555").Error)
	assert.Equal(t, model.PersonSourceAPI, person.PersonDataSource)
	assert.Equal(t, "Rosa", person.PersonFirstNames)
}

func TestResolveFallsBackToManualWhenLookupFails(t *testing.T) {
	db := newTestDB(t)
	lookup := &stubLookup{err: errors.New("registry down")}
	d := NewDirectory(db, lookup)

	ref := PatientRef{
		DNI:    "66667777",
		Person: &PersonInput{FirstNames: "Luis", LastNamePaternal: "Torres"},
	}
	_, err := d.ResolveOrCreateTx(context.Background(), db, uuid.New(), ref)
	require.NoError(t, err)

	var person model.Person
	require.NoError(t, db.First(&person, "person_dni = ?", "66667777").Error)
	assert.Equal(t, model.PersonSourceManual, person.PersonDataSource)
}

func TestSamePersonAcrossClinicsGetsSeparatePatients(t *testing.T) {
	db := newTestDB(t)
	d := NewDirectory(db, nil)

	ref := PatientRef{
		DNI:    "99990000",
		Person: &PersonInput{FirstNames: "Carmen", LastNamePaternal: "Silva"},
	}

	clinicA := uuid.New()
	clinicB := uuid.New()

	a, err := d.ResolveOrCreateTx(context.Background(), db, clinicA, ref)
	require.NoError(t, err)
	b, err := d.ResolveOrCreateTx(context.Background(), db, clinicB, ref)
	require.NoError(t, err)

	assert.NotEqual(t, a.PatientID, b.PatientID)
	assert.Equal(t, a.PatientPersonID, b.PatientPersonID)
}

func TestResolveByPatientIDIsClinicScoped(t *testing.T) {
	db := newTestDB(t)
	d := NewDirectory(db, nil)
	clinicID := uuid.New()

	patient, err := d.ResolveOrCreateTx(context.Background(), db, clinicID, PatientRef{
		DNI:    "12121212",
		Person: &PersonInput{FirstNames: "Ana", LastNamePaternal: "Rios"},
	})
	require.NoError(t, err)

	same, err := d.ResolveOrCreateTx(context.Background(), db, clinicID, PatientRef{PatientID: &patient.PatientID})
	require.NoError(t, err)
	assert.Equal(t, patient.PatientID, same.PatientID)

	_, err = d.ResolveOrCreateTx(context.Background(), db, uuid.New(), PatientRef{PatientID: &patient.PatientID})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
