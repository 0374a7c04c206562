// file: internals/route/index.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"miclinica_backend/internals/configs"
	"miclinica_backend/internals/middlewares"
	"miclinica_backend/internals/middlewares/auth"

	routedetails "miclinica_backend/internals/route/details"

	apptctrl "miclinica_backend/internals/features/appointments/controller"
	apptsvc "miclinica_backend/internals/features/appointments/service"
	auditctrl "miclinica_backend/internals/features/audit/controller"
	auditsvc "miclinica_backend/internals/features/audit/service"
	clinicctrl "miclinica_backend/internals/features/clinics/controller"
	historyctrl "miclinica_backend/internals/features/medicalhistory/controller"
	historysvc "miclinica_backend/internals/features/medicalhistory/service"
	patientctrl "miclinica_backend/internals/features/patients/controller"
	patientsvc "miclinica_backend/internals/features/patients/service"
	payctrl "miclinica_backend/internals/features/payments/controller"
	paysvc "miclinica_backend/internals/features/payments/service"
	"miclinica_backend/internals/features/realtime"
	treatctrl "miclinica_backend/internals/features/treatments/controller"
	userctrl "miclinica_backend/internals/features/users/controller"
)

// SetupRoutes wires services, controllers and middleware. The appointment
// service is the hub: payments, directory, clinical history, audit and the
// realtime feed all hang off it. It is returned so the expiry scheduler runs
// against the same instance the HTTP layer uses, events and audit included.
func SetupRoutes(app *fiber.App, db *gorm.DB) *apptsvc.Service {
	BaseRoutes(app, db)

	/* ---------- services ---------- */

	recorder := auditsvc.NewRecorder(db)
	hub := realtime.NewHub()

	var lookup patientsvc.IdentityLookup
	if base := configs.GetEnv("DNI_API_URL"); base != "" {
		lookup = patientsvc.NewDNILookupClient(base, configs.GetEnv("DNI_API_KEY"))
	}
	directory := patientsvc.NewDirectory(db, lookup)

	payments := paysvc.New(db).WithObservers(recorder, hub)
	history := historysvc.New(db)
	appointments := apptsvc.New(db, payments, directory, history, recorder, hub)

	var gateway *paysvc.Gateway
	if configs.MidtransServerKey != "" {
		gateway = paysvc.NewGateway(db, payments, configs.MidtransServerKey, configs.MidtransProdEnv)
	}

	/* ---------- controllers ---------- */

	authController := userctrl.NewAuthController(db)
	userController := userctrl.NewUserController(db)
	clinicController := clinicctrl.NewClinicController(db)
	treatmentController := treatctrl.NewTreatmentController(db)
	patientController := patientctrl.NewPatientController(db, directory)
	historyController := historyctrl.NewMedicalHistoryController(db)
	appointmentController := apptctrl.NewAppointmentController(appointments)
	paymentController := payctrl.NewPaymentController(payments, gateway)
	webhookController := payctrl.NewWebhookController(gateway, appointments)
	auditController := auditctrl.NewAuditController(recorder)

	/* ---------- public ---------- */

	api := app.Group("/api")
	api.Post("/auth/login", middlewares.LoginRateLimiter(), authController.Login)
	api.Post("/payments/notification", webhookController.HandleNotification)

	/* ---------- authenticated ---------- */

	protected := api.Group("", auth.AuthMiddleware(db))
	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/auth/me", authController.Me)

	routedetails.ClinicRoutes(protected, clinicController, userController)
	routedetails.TreatmentRoutes(protected, treatmentController)
	routedetails.PatientRoutes(protected, patientController, historyController)
	routedetails.AppointmentRoutes(protected, appointmentController)
	routedetails.PaymentRoutes(protected, paymentController)
	routedetails.AuditRoutes(protected, auditController)
	routedetails.RealtimeRoutes(protected, hub)

	return appointments
}
