// file: internals/features/appointments/service/policy.go
package service

import (
	"miclinica_backend/internals/constants"
	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	"miclinica_backend/internals/features/appointments/model"
)

// Operation names double as audit actions.
const (
	OpBook             = "appointment.book"
	OpConfirm          = "appointment.confirm"
	OpReassign         = "appointment.reassign"
	OpMarkReady        = "appointment.mark_ready"
	OpFinalize         = "appointment.finalize"
	OpCancel           = "appointment.cancel"
	OpCancelExpired    = "appointment.cancel_expired"
	OpReschedule       = "appointment.reschedule"
	OpUpdateTreatments = "appointment.update_treatments"
)

type policyRule struct {
	roles []string
	// assignedDoctor restricts doctors to appointments assigned to them.
	assignedDoctor bool
}

// policy is the single source of truth for who may run each operation.
// Superadmin and system sessions bypass it entirely.
var policy = map[string]policyRule{
	OpBook:             {roles: []string{constants.RoleAdmin, constants.RoleStaff}},
	OpConfirm:          {roles: []string{constants.RoleAdmin, constants.RoleDoctor}, assignedDoctor: true},
	OpReassign:         {roles: []string{constants.RoleAdmin, constants.RoleDoctor}, assignedDoctor: true},
	OpMarkReady:        {roles: []string{constants.RoleAdmin, constants.RoleDoctor}, assignedDoctor: true},
	OpFinalize:         {roles: []string{constants.RoleAdmin, constants.RoleStaff}},
	OpCancel:           {roles: []string{constants.RoleAdmin, constants.RoleStaff, constants.RoleDoctor}},
	OpReschedule:       {roles: []string{constants.RoleAdmin, constants.RoleStaff}},
	OpUpdateTreatments: {roles: []string{constants.RoleAdmin, constants.RoleStaff}},
}

// authorize checks role and clinic scope for an operation. appt may be nil
// for operations that do not target an existing appointment (booking).
func authorize(sess helper.Session, op string, appt *model.Appointment) error {
	if sess.IsSuperadmin() || sess.IsSystem() {
		return nil
	}

	rule, ok := policy[op]
	if !ok {
		return apperror.Forbidden("operation not allowed")
	}
	if !constants.RoleIn(sess.Role, rule.roles) {
		return apperror.Forbidden("role " + sess.Role + " may not perform this operation")
	}

	if appt != nil && appt.AppointmentClinicID != sess.ClinicID {
		// Cross-clinic rows do not exist from this session's point of view.
		return apperror.NotFound("appointment not found")
	}

	if rule.assignedDoctor && sess.Role == constants.RoleDoctor {
		if appt == nil || appt.AppointmentDoctorID == nil || *appt.AppointmentDoctorID != sess.UserID {
			return apperror.Forbidden("appointment is not assigned to this doctor")
		}
	}
	return nil
}
