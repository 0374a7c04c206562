package details

import (
	"github.com/gofiber/fiber/v2"

	"miclinica_backend/internals/constants"
	"miclinica_backend/internals/middlewares/auth"

	historyctrl "miclinica_backend/internals/features/medicalhistory/controller"
	patientctrl "miclinica_backend/internals/features/patients/controller"
)

func PatientRoutes(r fiber.Router, patients *patientctrl.PatientController, history *historyctrl.MedicalHistoryController) {
	g := r.Group("/patients", auth.RequireRoles(constants.RoleAdmin, constants.RoleStaff, constants.RoleDoctor))
	g.Post("/", patients.Register)
	g.Get("/", patients.List)
	g.Get("/:id", patients.Get)

	g.Get("/:patientId/records", history.ListByPatient)
	g.Get("/:patientId/conditions", history.ListPatientConditions)
	g.Post("/:patientId/conditions", auth.RequireRoles(constants.RoleAdmin, constants.RoleDoctor), history.FlagCondition)

	c := r.Group("/conditions", auth.RequireRoles(constants.RoleAdmin, constants.RoleDoctor))
	c.Post("/", history.CreateCondition)
	c.Get("/", history.ListConditions)

	r.Get("/records/appointment/:appointmentId", history.GetByAppointment)
}
