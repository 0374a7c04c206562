// file: internals/features/users/controller/user_controller.go
package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"

	"miclinica_backend/internals/features/users/service"
)

type UserController struct {
	Service  *service.AuthService
	Validate *validator.Validate
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{
		Service:  service.NewAuthService(db),
		Validate: validator.New(),
	}
}

func (ctrl *UserController) Create(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}

	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	user, err := ctrl.Service.CreateUser(c.Context(), sess, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "user created", user)
}

func (ctrl *UserController) Get(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid user id")
	}
	user, err := ctrl.Service.Get(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", user)
}

func (ctrl *UserController) List(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	users, err := ctrl.Service.List(c.Context(), sess, service.ListFilter{
		Role: c.Query("role"),
		Page: helper.ParsePagination(c),
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", users)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (ctrl *UserController) SetActive(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid user id")
	}
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	user, err := ctrl.Service.SetActive(c.Context(), sess, id, req.Active)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "user updated", user)
}
