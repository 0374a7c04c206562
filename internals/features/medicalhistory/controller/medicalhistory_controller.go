// file: internals/features/medicalhistory/controller/medicalhistory_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"

	"miclinica_backend/internals/features/medicalhistory/service"
)

type MedicalHistoryController struct {
	Service *service.Service
}

func NewMedicalHistoryController(db *gorm.DB) *MedicalHistoryController {
	return &MedicalHistoryController{Service: service.New(db)}
}

func (ctrl *MedicalHistoryController) ListByPatient(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Params("patientId"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid patient id")
	}
	rows, err := ctrl.Service.ListByPatient(c.Context(), sess, patientID, helper.ParsePagination(c))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}

func (ctrl *MedicalHistoryController) GetByAppointment(c *fiber.Ctx) error {
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

/* ===================== Conditions ===================== */

type conditionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (ctrl *MedicalHistoryController) CreateCondition(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	var req conditionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	row, err := ctrl.Service.CreateCondition(c.Context(), sess, req.Name, req.Description)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "condition created", row)
}

func (ctrl *MedicalHistoryController) ListConditions(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	rows, err := ctrl.Service.ListConditions(c.Context(), sess, helper.ParsePagination(c))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}

type flagConditionRequest struct {
	ConditionID uuid.UUID `json:"condition_id"`
	Notes       *string   `json:"notes,omitempty"`
}

func (ctrl *MedicalHistoryController) FlagCondition(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Params("patientId"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid patient id")
	}
	var req flagConditionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	row, err := ctrl.Service.FlagCondition(c.Context(), sess, patientID, req.ConditionID, req.Notes)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "condition flagged", row)
}

func (ctrl *MedicalHistoryController) ListPatientConditions(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Params("patientId"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid patient id")
	}
	rows, err := ctrl.Service.ListPatientConditions(c.Context(), sess, patientID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}
