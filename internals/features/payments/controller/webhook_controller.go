// file: internals/features/payments/controller/webhook_controller.go
package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	apptsvc "miclinica_backend/internals/features/appointments/service"
	paymodel "miclinica_backend/internals/features/payments/model"
	"miclinica_backend/internals/features/payments/service"
)

// WebhookController receives Midtrans payment notifications. A settled
// notification finalizes the appointment through the regular path, so the
// state machine, audit trail and realtime feed all see a normal
// finalization with method "gateway".
type WebhookController struct {
	Gateway      *service.Gateway
	Appointments *apptsvc.Service
}

func NewWebhookController(gateway *service.Gateway, appointments *apptsvc.Service) *WebhookController {
	return &WebhookController{Gateway: gateway, Appointments: appointments}
}

func (ctrl *WebhookController) HandleNotification(c *fiber.Ctx) error {
	if ctrl.Gateway == nil {
		return helper.Error(c, fiber.StatusServiceUnavailable, "online payments are not configured")
	}

	var n service.Notification
	if err := c.BodyParser(&n); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid notification body")
	}

	payment, err := ctrl.Gateway.ResolveNotification(c.Context(), n)
	if err != nil {
		log.Printf("[WEBHOOK] rejected notification order=%s: %v", n.OrderID, err)
		return helper.FromError(c, err)
	}

	if !n.IsSettled() {
		// Pending/deny/expire notifications are acknowledged and ignored;
		// expiry of the appointment itself is the sweeper's job.
		return helper.Success(c, "notification ignored", nil)
	}

	sess := helper.SystemSession()
	sess.ClinicID = payment.PaymentClinicID

	_, err = ctrl.Appointments.Finalize(c.Context(), sess, payment.PaymentAppointmentID, paymodel.PaymentMethodGateway)
	if err != nil {
		// A repeated settlement notification hits the finalized state guard;
		// acknowledge so Midtrans stops retrying.
		if apperror.IsKind(err, apperror.KindState) {
			return helper.Success(c, "already finalized", nil)
		}
		log.Printf("[WEBHOOK] finalize from notification order=%s failed: %v", n.OrderID, err)
		return helper.FromError(c, err)
	}
	return helper.Success(c, "payment settled", nil)
}
