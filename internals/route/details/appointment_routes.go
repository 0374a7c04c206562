package details

import (
	"github.com/gofiber/fiber/v2"

	apptctrl "miclinica_backend/internals/features/appointments/controller"
)

// Role enforcement for transitions lives in the service policy table; the
// route layer only requires an authenticated session.
func AppointmentRoutes(r fiber.Router, appointments *apptctrl.AppointmentController) {
	g := r.Group("/appointments")

	g.Post("/", appointments.Book)
	g.Get("/", appointments.List)
	g.Get("/:id", appointments.Get)
	g.Get("/:id/treatments", appointments.ListItems)
	g.Get("/:id/history", appointments.ListHistory)

	g.Post("/:id/confirm", appointments.Confirm)
	g.Post("/:id/reassign", appointments.Reassign)
	g.Post("/:id/ready", appointments.MarkReady)
	g.Post("/:id/finalize", appointments.Finalize)
	g.Post("/:id/cancel", appointments.Cancel)
	g.Post("/:id/reschedule", appointments.Reschedule)
	g.Put("/:id/treatments", appointments.UpdateTreatments)
}
