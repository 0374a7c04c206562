// file: internals/features/appointments/controller/appointment_controller.go
package controller

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/dbtime"

	"miclinica_backend/internals/features/appointments/service"
)

type AppointmentController struct {
	Service  *service.Service
	Validate *validator.Validate
}

func NewAppointmentController(svc *service.Service) *AppointmentController {
	return &AppointmentController{
		Service:  svc,
		Validate: validator.New(),
	}
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

/* ===================== Book ===================== */

func (ctrl *AppointmentController) Book(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}

	var req service.BookRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	appt, err := ctrl.Service.Book(c.Context(), sess, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "appointment booked", appt)
}

/* ===================== Transitions ===================== */

func (ctrl *AppointmentController) Confirm(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	appt, err := ctrl.Service.Confirm(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "appointment confirmed", appt)
}

type reassignRequest struct {
	DoctorID *uuid.UUID `json:"doctor_id,omitempty"`
}

func (ctrl *AppointmentController) Reassign(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	var req reassignRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	appt, err := ctrl.Service.Reassign(c.Context(), sess, id, req.DoctorID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "appointment reassigned", appt)
}

func (ctrl *AppointmentController) MarkReady(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	var notes service.ClinicalNotes
	if err := c.BodyParser(&notes); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	appt, err := ctrl.Service.MarkReadyForPayment(c.Context(), sess, id, notes)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "appointment ready for payment", appt)
}

type finalizeRequest struct {
	Method string `json:"method" validate:"required"`
}

func (ctrl *AppointmentController) Finalize(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	var req finalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	appt, err := ctrl.Service.Finalize(c.Context(), sess, id, req.Method)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "appointment finalized", appt)
}

func (ctrl *AppointmentController) Cancel(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	appt, err := ctrl.Service.Cancel(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "appointment cancelled", appt)
}

type rescheduleRequest struct {
	Date   string  `json:"date" validate:"required"`
	Time   string  `json:"time" validate:"required"`
	Reason *string `json:"reason,omitempty"`
}

func (ctrl *AppointmentController) Reschedule(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	var req rescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	newDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	newTime, err := dbtime.Parse(req.Time)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "time must be HH:MM")
	}

	appt, err := ctrl.Service.Reschedule(c.Context(), sess, id, newDate, newTime, req.Reason)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "appointment rescheduled", appt)
}

type updateTreatmentsRequest struct {
	Treatments []service.LineItemInput `json:"treatments"`
}

func (ctrl *AppointmentController) UpdateTreatments(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	var req updateTreatmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	appt, err := ctrl.Service.UpdateTreatments(c.Context(), sess, id, req.Treatments)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "treatments updated", appt)
}

/* ===================== Queries ===================== */

func (ctrl *AppointmentController) Get(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	appt, err := ctrl.Service.Get(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", appt)
}

func (ctrl *AppointmentController) List(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}

	f := service.ListFilter{
		Status: c.Query("status"),
		Page:   helper.ParsePagination(c),
	}
	if raw := c.Query("doctor_id"); raw != "" {
		if id, perr := uuid.Parse(raw); perr == nil {
			f.DoctorID = &id
		}
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
			f.DateTo = &t
		}
	}

	rows, err := ctrl.Service.List(c.Context(), sess, f)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}

func (ctrl *AppointmentController) ListItems(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	rows, err := ctrl.Service.ListItems(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}

func (ctrl *AppointmentController) ListHistory(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "invalid appointment id")
	}
	rows, err := ctrl.Service.ListHistory(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}
