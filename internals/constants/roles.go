package constants

const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleDoctor     = "doctor"

	// RoleSystem is never stored on a user row. It is the actor role carried
	// by background jobs (expiry sweeper) when they run business operations.
	RoleSystem = "system"
)

var (
	AllRoles = []string{
		RoleSuperadmin,
		RoleAdmin,
		RoleStaff,
		RoleDoctor,
	}

	ClinicRoles = []string{
		RoleAdmin,
		RoleStaff,
		RoleDoctor,
	}

	StaffAndAbove = []string{
		RoleSuperadmin,
		RoleAdmin,
		RoleStaff,
	}

	AdminAndAbove = []string{
		RoleSuperadmin,
		RoleAdmin,
	}
)

func RoleIn(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
