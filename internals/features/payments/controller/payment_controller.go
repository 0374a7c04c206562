// file: internals/features/payments/controller/payment_controller.go
package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helper "miclinica_backend/internals/helpers"

	"miclinica_backend/internals/features/payments/service"
)

type PaymentController struct {
	Service *service.Service
	Gateway *service.Gateway
}

func NewPaymentController(svc *service.Service, gateway *service.Gateway) *PaymentController {
	return &PaymentController{Service: svc, Gateway: gateway}
}

func (ctrl *PaymentController) GetByAppointment(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	appointmentID, err := uuid.Parse(c.Params("appointmentId"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	row, err := ctrl.Service.GetByAppointment(c.Context(), sess, appointmentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", row)
}

func (ctrl *PaymentController) List(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}

	f := service.ListFilter{
		Status: c.Query("status"),
		Method: c.Query("method"),
		Page:   helper.ParsePagination(c),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, perr := uuid.Parse(raw); perr == nil {
			f.PatientID = &id
		}
	}
	if raw := c.Query("from"); raw != "" {
		if t, perr := time.Parse("2006-01-02", raw); perr == nil {
			f.DateFrom = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, perr := time.Parse("2006-01-02", raw); perr == nil {
			t = t.Add(24 * time.Hour)
			f.DateTo = &t
		}
	}

	rows, err := ctrl.Service.List(c.Context(), sess, f)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}

type adjustRequest struct {
	Amount int64 `json:"amount"`
}

func (ctrl *PaymentController) Adjust(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	appointmentID, err := uuid.Parse(c.Params("appointmentId"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	row, err := ctrl.Service.ManualAdjust(c.Context(), sess, appointmentID, req.Amount)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "payment adjusted", row)
}

// DailyTotal is the cash-desk closing figure for one day (default today).
func (ctrl *PaymentController) DailyTotal(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, perr := time.Parse("2006-01-02", raw)
		if perr != nil {
			return helper.Error(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		day = parsed
	}
	total, err := ctrl.Service.DailyTotal(c.Context(), sess, day)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", fiber.Map{
		"date":  day.Format("2006-01-02"),
		"total": total,
	})
}

/* ===================== Online checkout ===================== */

func (ctrl *PaymentController) CreateCheckout(c *fiber.Ctx) error {
	if ctrl.Gateway == nil {
		return helper.Error(c, fiber.StatusServiceUnavailable, "online payments are not configured")
	}
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	appointmentID, err := uuid.Parse(c.Params("appointmentId"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	result, err := ctrl.Gateway.CreateCheckout(c.Context(), sess, appointmentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "checkout created", result)
}
