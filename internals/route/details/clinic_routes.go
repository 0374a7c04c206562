package details

import (
	"github.com/gofiber/fiber/v2"

	"miclinica_backend/internals/constants"
	"miclinica_backend/internals/middlewares/auth"

	clinicctrl "miclinica_backend/internals/features/clinics/controller"
	userctrl "miclinica_backend/internals/features/users/controller"
)

func ClinicRoutes(r fiber.Router, clinics *clinicctrl.ClinicController, users *userctrl.UserController) {
	g := r.Group("/clinics")
	g.Post("/", clinics.Create)            // superadmin check in service
	g.Get("/", clinics.List)               // superadmin
	g.Get("/:id", clinics.Get)
	g.Put("/:id", clinics.Update)
	g.Patch("/:id/active", clinics.SetActive)

	u := r.Group("/users", auth.RequireRoles(constants.RoleAdmin))
	u.Post("/", users.Create)
	u.Get("/", users.List)
	u.Get("/:id", users.Get)
	u.Patch("/:id/active", users.SetActive)
}
