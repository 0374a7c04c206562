// file: internals/features/clinics/controller/clinic_controller.go
package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"

	"miclinica_backend/internals/features/clinics/service"
)

type ClinicController struct {
	Service  *service.Service
	Validate *validator.Validate
}

func NewClinicController(db *gorm.DB) *ClinicController {
	return &ClinicController{
		Service:  service.New(db),
		Validate: validator.New(),
	}
}

func (ctrl *ClinicController) Create(c *fiber.Ctx) error {
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
	clinic, err := ctrl.Service.Create(c.Context(), sess, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "clinic created", clinic)
}

func (ctrl *ClinicController) Update(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid clinic id")
	}
	var req service.UpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	clinic, err := ctrl.Service.Update(c.Context(), sess, id, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "clinic updated", clinic)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (ctrl *ClinicController) SetActive(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid clinic id")
	}
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	clinic, err := ctrl.Service.SetActive(c.Context(), sess, id, req.Active)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "clinic updated", clinic)
}

func (ctrl *ClinicController) Get(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid clinic id")
	}
	clinic, err := ctrl.Service.Get(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", clinic)
}

func (ctrl *ClinicController) List(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	clinics, err := ctrl.Service.List(c.Context(), sess, helper.ParsePagination(c))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", clinics)
}
