package details

import (
	"github.com/gofiber/fiber/v2"

	"miclinica_backend/internals/constants"
	"miclinica_backend/internals/middlewares/auth"

	auditctrl "miclinica_backend/internals/features/audit/controller"
)

func AuditRoutes(r fiber.Router, audit *auditctrl.AuditController) {
	g := r.Group("/audit", auth.RequireRoles(constants.RoleAdmin))
	g.Get("/", audit.Search)
	g.Get("/:id", audit.Get)
}
