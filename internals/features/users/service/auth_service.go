// file: internals/features/users/service/auth_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"miclinica_backend/internals/configs"
	"miclinica_backend/internals/constants"
	helper "miclinica_backend/internals/helpers"
	"miclinica_backend/internals/helpers/apperror"

	clinicmodel "miclinica_backend/internals/features/clinics/model"
	"miclinica_backend/internals/features/users/model"
)

const tokenTTL = 12 * time.Hour

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Login verifies credentials and issues a signed token carrying the session
// claims (user id, role, clinic id). An inactive user or a suspended clinic
// cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "user_email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.Forbidden("invalid credentials")
		}
		return nil, err
	}
	if !user.UserActive {
		return nil, apperror.Forbidden("account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.UserPasswordHash), []byte(password)); err != nil {
		return nil, apperror.Forbidden("invalid credentials")
	}

	if user.UserClinicID != nil {
		var clinic clinicmodel.Clinic
		if err := s.db.WithContext(ctx).First(&clinic, "clinic_id = ?", *user.UserClinicID).Error; err != nil {
			return nil, err
		}
		if !clinic.ClinicActive {
			return nil, apperror.Forbidden("clinic is suspended")
		}
	}

	expiresAt := time.Now().Add(tokenTTL)
	claims := jwt.MapClaims{
		"user_id": user.UserID.String(),
		"role":    user.UserRole,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	if user.UserClinicID != nil {
		claims["clinic_id"] = user.UserClinicID.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(configs.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: &user}, nil
}

// Logout blacklists the presented token until its natural expiry. The
// cleanup scheduler prunes expired rows.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return apperror.Validation("missing token")
	}

	expiredAt := time.Now().Add(tokenTTL)
	parsed, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err == nil {
		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			if exp, ok := claims["exp"].(float64); ok {
				expiredAt = time.Unix(int64(exp), 0)
			}
		}
	}

	row := model.TokenBlacklist{
		Token:     rawToken,
		ExpiredAt: expiredAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

/* ===================== User management ===================== */

type CreateUserRequest struct {
	ClinicID *uuid.UUID `json:"clinic_id,omitempty"`
	PersonID uuid.UUID  `json:"person_id"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     string     `json:"role" validate:"required"`
}

// CreateUser registers a clinic account. Admins create users for their own
// clinic; superadmin may target any clinic (or none, for another
// superadmin).
func (s *AuthService) CreateUser(ctx context.Context, sess helper.Session, req CreateUserRequest) (*model.User, error) {
	clinicID := req.ClinicID
	switch {
	case sess.IsSuperadmin():
		// clinicID as given.
	case sess.Role == constants.RoleAdmin:
		id := sess.ClinicID
		clinicID = &id
	default:
		return nil, apperror.Forbidden("only an admin may create users")
	}

	if req.Role == constants.RoleSuperadmin && !sess.IsSuperadmin() {
		return nil, apperror.Forbidden("only superadmin may create superadmin accounts")
	}
	switch req.Role {
	case constants.RoleSuperadmin, constants.RoleAdmin, constants.RoleStaff, constants.RoleDoctor:
	default:
		return nil, apperror.Validation("unknown role: " + req.Role)
	}
	if req.Role != constants.RoleSuperadmin && clinicID == nil {
		return nil, apperror.Validation("clinic is required for this role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	row := model.User{
		UserClinicID:     clinicID,
		UserPersonID:     req.PersonID,
		UserEmail:        strings.ToLower(strings.TrimSpace(req.Email)),
		UserPasswordHash: string(hash),
		UserRole:         req.Role,
		UserActive:       true,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *AuthService) SetActive(ctx context.Context, sess helper.Session, userID uuid.UUID, active bool) (*model.User, error) {
	user, err := s.Get(ctx, sess, userID)
	if err != nil {
		return nil, err
	}
	if !sess.IsSuperadmin() && sess.Role != constants.RoleAdmin {
		return nil, apperror.Forbidden("only an admin may disable users")
	}
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", user.UserID).
		Update("user_active", active).Error; err != nil {
		return nil, err
	}
	user.UserActive = active
	return user, nil
}

func (s *AuthService) Get(ctx context.Context, sess helper.Session, userID uuid.UUID) (*model.User, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !sess.IsSuperadmin() {
		q = q.Where("user_clinic_id = ?", sess.ClinicID)
	}
	var user model.User
	if err := q.First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

type ListFilter struct {
	Role string
	Page helper.Pagination
}

func (s *AuthService) List(ctx context.Context, sess helper.Session, f ListFilter) ([]model.User, error) {
	q := s.db.WithContext(ctx).Model(&model.User{})
	if !sess.IsSuperadmin() {
		q = q.Where("user_clinic_id = ?", sess.ClinicID)
	}
	if f.Role != "" {
		q = q.Where("user_role = ?", f.Role)
	}
	var rows []model.User
	if err := q.Order("user_created_at DESC").
		Offset(f.Page.Offset()).Limit(f.Page.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
