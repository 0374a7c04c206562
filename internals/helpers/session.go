package helper

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"miclinica_backend/internals/constants"
)

// Session is the caller context every business operation receives:
// who is acting, for which clinic, with which role. It is resolved once by
// the auth middleware and trusted from then on.
type Session struct {
	UserID   uuid.UUID
	ClinicID uuid.UUID
	Role     string
}

func (s Session) IsSuperadmin() bool { return s.Role == constants.RoleSuperadmin }
func (s Session) IsSystem() bool     { return s.Role == constants.RoleSystem }

// ActorID returns the acting user id, or nil for system sessions so audit
// rows record a null actor.
func (s Session) ActorID() *uuid.UUID {
	if s.IsSystem() || s.UserID == uuid.Nil {
		return nil
	}
	id := s.UserID
	return &id
}

// SystemSession is the actor used by background jobs.
func SystemSession() Session {
	return Session{Role: constants.RoleSystem}
}

// SessionFromCtx rebuilds the Session stored in locals by the auth
// middleware.
func SessionFromCtx(c *fiber.Ctx) (Session, error) {
	userIDStr, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("user_role").(string)
	clinicIDStr, _ := c.Locals("clinic_id").(string)

	if userIDStr == "" || role == "" {
		return Session{}, fiber.NewError(fiber.StatusUnauthorized, "missing session context")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return Session{}, fiber.NewError(fiber.StatusUnauthorized, "invalid user id in session")
	}

	sess := Session{UserID: userID, Role: role}

	// Superadmin has no home clinic; every other role must carry one.
	if clinicIDStr != "" {
		clinicID, err := uuid.Parse(clinicIDStr)
		if err != nil {
			return Session{}, fiber.NewError(fiber.StatusUnauthorized, "invalid clinic id in session")
		}
		sess.ClinicID = clinicID
	} else if role != constants.RoleSuperadmin {
		return Session{}, fiber.NewError(fiber.StatusUnauthorized, "missing clinic scope")
	}

	return sess, nil
}
