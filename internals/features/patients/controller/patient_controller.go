// file: internals/features/patients/controller/patient_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "miclinica_backend/internals/helpers"

	"miclinica_backend/internals/features/patients/service"
)

type PatientController struct {
	Directory *service.Directory
	DB        *gorm.DB
}

func NewPatientController(db *gorm.DB, directory *service.Directory) *PatientController {
	return &PatientController{Directory: directory, DB: db}
}

// Register resolves (or creates) a patient from a DNI or explicit person
// data, without booking anything.
func (ctrl *PatientController) Register(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}

	var ref service.PatientRef
	if err := c.BodyParser(&ref); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var patientID uuid.UUID
	err = ctrl.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		patient, rerr := ctrl.Directory.ResolveOrCreateTx(c.Context(), tx, sess.ClinicID, ref)
		if rerr != nil {
			return rerr
		}
		patientID = patient.PatientID
		return nil
	})
	if err != nil {
		return helper.FromError(c, err)
	}

	row, err := ctrl.Directory.Get(c.Context(), sess, patientID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "patient registered", row)
}

func (ctrl *PatientController) Get(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid patient id")
	}
	row, err := ctrl.Directory.Get(c.Context(), sess, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", row)
}

func (ctrl *PatientController) List(c *fiber.Ctx) error {
	sess, err := helper.SessionFromCtx(c)
	if err != nil {
		return err
	}
	rows, err := ctrl.Directory.List(c.Context(), sess, service.ListFilter{
		Search: c.Query("q"),
		Page:   helper.ParsePagination(c),
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "ok", rows)
}
