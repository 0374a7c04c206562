// file: internals/seeds/runner.go
package seeds

import (
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"miclinica_backend/internals/configs"
	"miclinica_backend/internals/constants"

	personmodel "miclinica_backend/internals/features/patients/model"
	usermodel "miclinica_backend/internals/features/users/model"
)

// Run bootstraps the first superadmin account when the users table has none.
// Controlled by SEED_SUPERADMIN_EMAIL / SEED_SUPERADMIN_PASSWORD.
func Run(db *gorm.DB) {
	email := configs.GetEnv("SEED_SUPERADMIN_EMAIL")
	password := configs.GetEnv("SEED_SUPERADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var existing usermodel.User
	err := db.First(&existing, "user_role = ?", constants.RoleSuperadmin).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[SEED] superadmin check failed: %v", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[SEED] hash failed: %v", err)
		return
	}

	person := personmodel.Person{
		PersonDNI:        "00000000",
		PersonFirstNames: "System",
		PersonDataSource: personmodel.PersonSourceManual,
	}
	if err := db.Create(&person).Error; err != nil {
		log.Printf("[SEED] person create failed: %v", err)
		return
	}

	user := usermodel.User{
		UserPersonID:     person.PersonID,
		UserEmail:        email,
		UserPasswordHash: string(hash),
		UserRole:         constants.RoleSuperadmin,
		UserActive:       true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Printf("[SEED] superadmin create failed: %v", err)
		return
	}
	log.Printf("[SEED] superadmin %s created", email)
}
