package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"miclinica_backend/internals/constants"
	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	"miclinica_backend/internals/features/appointments/model"
)

func TestAuthorizeSuperadminAndSystemBypass(t *testing.T) {
	appt := &model.Appointment{AppointmentClinicID: uuid.New()}

	super := helper.Session{UserID: uuid.New(), Role: constants.RoleSuperadmin}
	assert.NoError(t, authorize(super, OpFinalize, appt))

	assert.NoError(t, authorize(helper.SystemSession(), OpCancel, appt))
}

func TestAuthorizeCrossClinicLooksLikeNotFound(t *testing.T) {
	appt := &model.Appointment{AppointmentClinicID: uuid.New()}
	sess := helper.Session{UserID: uuid.New(), ClinicID: uuid.New(), Role: constants.RoleAdmin}

	err := authorize(sess, OpCancel, appt)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestAuthorizeAssignedDoctorRule(t *testing.T) {
	clinicID := uuid.New()
	doctorID := uuid.New()
	appt := &model.Appointment{AppointmentClinicID: clinicID, AppointmentDoctorID: &doctorID}

	assigned := helper.Session{UserID: doctorID, ClinicID: clinicID, Role: constants.RoleDoctor}
	assert.NoError(t, authorize(assigned, OpConfirm, appt))

	other := helper.Session{UserID: uuid.New(), ClinicID: clinicID, Role: constants.RoleDoctor}
	assert.True(t, apperror.IsKind(authorize(other, OpConfirm, appt), apperror.KindForbidden))

	// Admins confirm without being assigned.
	admin := helper.Session{UserID: uuid.New(), ClinicID: clinicID, Role: constants.RoleAdmin}
	assert.NoError(t, authorize(admin, OpConfirm, appt))

	unassigned := &model.Appointment{AppointmentClinicID: clinicID}
	assert.True(t, apperror.IsKind(authorize(assigned, OpConfirm, unassigned), apperror.KindForbidden))
}

func TestAuthorizeRoleTable(t *testing.T) {
	clinicID := uuid.New()
	appt := &model.Appointment{AppointmentClinicID: clinicID}
	staff := helper.Session{UserID: uuid.New(), ClinicID: clinicID, Role: constants.RoleStaff}
	doctor := helper.Session{UserID: uuid.New(), ClinicID: clinicID, Role: constants.RoleDoctor}

	assert.NoError(t, authorize(staff, OpBook, nil))
	assert.NoError(t, authorize(staff, OpFinalize, appt))
	assert.NoError(t, authorize(staff, OpCancel, appt))
	assert.True(t, apperror.IsKind(authorize(doctor, OpBook, nil), apperror.KindForbidden))
	assert.True(t, apperror.IsKind(authorize(doctor, OpFinalize, appt), apperror.KindForbidden))
}
