package details

import (
	"github.com/gofiber/fiber/v2"

	"miclinica_backend/internals/constants"
	"miclinica_backend/internals/middlewares/auth"

	payctrl "miclinica_backend/internals/features/payments/controller"
)

func PaymentRoutes(r fiber.Router, payments *payctrl.PaymentController) {
	g := r.Group("/payments", auth.RequireRoles(constants.RoleAdmin, constants.RoleStaff))
	g.Get("/", payments.List)
	g.Get("/daily-total", payments.DailyTotal)
	g.Get("/appointment/:appointmentId", payments.GetByAppointment)
	g.Patch("/appointment/:appointmentId/amount", auth.RequireRoles(constants.RoleAdmin), payments.Adjust)
	g.Post("/appointment/:appointmentId/checkout", payments.CreateCheckout)
}
