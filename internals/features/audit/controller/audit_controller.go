// file: internals/features/audit/controller/audit_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helper "miclinica_backend/internals/helpers"

	"miclinica_backend/internals/features/audit/service"
)

type AuditController struct {
	Recorder *service.Recorder
}

func NewAuditController(recorder *service.Recorder) *AuditController {
	return &AuditController{Recorder: recorder}
}

func (ctrl *AuditController) Search(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}

	f := service.SearchFilter{
		Action: c.Query("action"),
		Table:  c.Query("table"),
		Page:   helper.ParsePagination(c),
	}
	if raw := c.Query("clinic_id"); raw != "" {
		if id, perr := uuid.Parse(raw); perr == nil {
			f.ClinicID = &id
		}
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, perr := uuid.Parse(raw); perr == nil {
			f.UserID = &id
		}
	}

	rows, err := ctrl.Recorder.Search(c.Context(), sess, f)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}

func (ctrl *AuditController) Get(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid audit id")
	}
	row, err := ctrl.Recorder.GetByID(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", row)
}
