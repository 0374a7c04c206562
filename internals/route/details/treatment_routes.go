package details

import (
	"github.com/gofiber/fiber/v2"

	"miclinica_backend/internals/constants"
	"miclinica_backend/internals/middlewares/auth"

	treatctrl "miclinica_backend/internals/features/treatments/controller"
)

func TreatmentRoutes(r fiber.Router, treatments *treatctrl.TreatmentController) {
	g := r.Group("/treatments")

	// Everyone in the clinic can browse the catalog.
	g.Get("/", treatments.List)
	g.Get("/:id", treatments.Get)

	// Catalog management is admin-only.
	admin := g.Group("", auth.RequireRoles(constants.RoleAdmin))
	admin.Post("/", treatments.Create)
	admin.Put("/:id", treatments.Update)
	admin.Patch("/:id/active", treatments.SetActive)
}
