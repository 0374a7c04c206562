package helper

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"miclinica_backend/internals/helpers/apperror"
)

// Success response without custom code (default 200)
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return SuccessWithCode(c, fiber.StatusOK, message, data)
}

// Success response with custom code (e.g. 201 for created)
func SuccessWithCode(c *fiber.Ctx, code int, message string, data interface{}) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  "error",
		"message": message,
	})
}

func ErrorWithKind(c *fiber.Ctx, code int, kind, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  "error",
		"kind":    kind,
		"message": message,
	})
}

func ErrorWithDetails(c *fiber.Ctx, code int, message string, errs interface{}) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  "error",
		"message": message,
		"errors":  errs,
	})
}

// FromError maps a service error to its response. apperror kinds carry a
// stable "kind" field; anything else is an internal error and the original
// message stays in the server log only.
func FromError(c *fiber.Ctx, err error) error {
	if kind := apperror.KindOf(err); kind != "" {
		return ErrorWithKind(c, apperror.HTTPStatus(err), kind, err.Error())
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.OriginalURL(), err)
	return Error(c, fiber.StatusInternalServerError, "internal server error")
}

// ValidationError renders validator.v10 field errors.
func ValidationError(c *fiber.Ctx, err error) error {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return ErrorWithKind(c, fiber.StatusBadRequest, apperror.KindValidation, "invalid input")
	}

	errorsMap := make(map[string]string)
	for _, fieldErr := range ve {
		errorsMap[fieldErr.Field()] = fieldErr.Tag()
	}

	return ErrorWithDetails(c, fiber.StatusBadRequest, "validation failed", errorsMap)
}
