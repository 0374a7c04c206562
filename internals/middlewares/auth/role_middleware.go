// internals/middlewares/auth/role_middleware.go
package auth

import (
	"github.com/gofiber/fiber/v2"

	"miclinica_backend/internals/constants"
)

// RequireRoles gates a route group on the session role. Superadmin always
// passes. Fine-grained checks (assigned doctor, clinic scope) live in the
// services; this is only the coarse route-level gate.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session role")
		}
		if role == constants.RoleSuperadmin || constants.RoleIn(role, roles) {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient role")
	}
}
