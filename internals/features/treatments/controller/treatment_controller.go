// file: internals/features/treatments/controller/treatment_controller.go
package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"

	"miclinica_backend/internals/features/treatments/service"
)

type TreatmentController struct {
	Service  *service.Service
	Validate *validator.Validate
}

func NewTreatmentController(db *gorm.DB) *TreatmentController {
	return &TreatmentController{
		Service:  service.New(db),
		Validate: validator.New(),
	}
}

func (ctrl *TreatmentController) Create(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	var req service.UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	row, err := ctrl.Service.Create(c.Context(), sess, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "treatment created", row)
}

func (ctrl *TreatmentController) Update(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid treatment id")
	}
	var req service.UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	row, err := ctrl.Service.Update(c.Context(), sess, id, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "treatment updated", row)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (ctrl *TreatmentController) SetActive(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid treatment id")
	}
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	row, err := ctrl.Service.SetActive(c.Context(), sess, id, req.Active)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "treatment updated", row)
}

func (ctrl *TreatmentController) Get(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid treatment id")
	}
	row, err := ctrl.Service.Get(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", row)
}

func (ctrl *TreatmentController) List(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	rows, err := ctrl.Service.List(c.Context(), sess, service.ListFilter{
		OnlyActive: c.QueryBool("active", false),
		Search:     c.Query("q"),
		Page:       helper.ParsePagination(c),
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}
