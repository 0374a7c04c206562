// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"miclinica_backend/internals/configs"
	usermodel "miclinica_backend/internals/features/users/model"
)

// Public paths that skip auth (payment gateway webhook).
var skipPaths = map[string]struct{}{
	"/api/payments/notification": {},
}

// AuthMiddleware verifies the bearer token, rejects blacklisted tokens,
// checks the account is still active and stores the session claims in
// locals (user_id, user_role, clinic_id).
func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := skipPaths[c.Path()]; ok {
			return c.Next()
		}

		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		var blacklisted usermodel.TokenBlacklist
		if err := db.Where("token = ? AND deleted_at IS NULL", tokenString).First(&blacklisted).Error; err == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "token has been revoked")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Println("[AUTH] blacklist lookup failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}

		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[AUTH] JWT_SECRET is empty")
			return fiber.NewError(fiber.StatusInternalServerError, "missing jwt secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		}); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "token expired")
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing user id")
		}

		var user usermodel.User
		if err := db.First(&user, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "user not found")
			}
			log.Println("[AUTH] user lookup failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}
		if !user.UserActive {
			return fiber.NewError(fiber.StatusForbidden, "account is disabled")
		}

		// Role and clinic come from the user row, not the token, so role
		// changes and clinic moves take effect without reissuing tokens.
		c.Locals("user_id", user.UserID.String())
		c.Locals("user_role", user.UserRole)
		if user.UserClinicID != nil {
			c.Locals("clinic_id", user.UserClinicID.String())
		}

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], nil
		}
		return "", errors.New("malformed authorization header")
	}
	if cookie := c.Cookies("access_token"); cookie != "" {
		return cookie, nil
	}
	return "", errors.New("missing authorization token")
}

func validateTokenExpiry(claims jwt.MapClaims, leeway time.Duration) error {
	exp, ok := claims["exp"].(float64)
	if !ok {
		return errors.New("missing exp claim")
	}
	if time.Now().After(time.Unix(int64(exp), 0).Add(leeway)) {
		return errors.New("token expired")
	}
	return nil
}
