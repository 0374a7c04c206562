// file: internals/features/users/controller/auth_controller.go
package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"

	"miclinica_backend/internals/features/users/service"
)

type AuthController struct {
	Service  *service.AuthService
	Validate *validator.Validate
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{
		Service:  service.NewAuthService(db),
		Validate: validator.New(),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	result, err := ctrl.Service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "login successful", result)
}

func (ctrl *AuthController) Logout(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	token := ""
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 {
		token = parts[1]
	}
	if err := ctrl.Service.Logout(c.Context(), token); err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "logged out", nil)
}

// Me returns the account behind the current session.
func (ctrl *AuthController) Me(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	user, err := ctrl.Service.Get(c.Context(), sess, sess.UserID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", user)
}
