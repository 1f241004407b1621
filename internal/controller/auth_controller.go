package controller

import (
	"log"
	"time"

	"agrimarket_backend/internal/model"
	"agrimarket_backend/pkg/audit"
	"agrimarket_backend/pkg/database"
	"agrimarket_backend/pkg/email"
	"agrimarket_backend/pkg/utils/jwt"
	"agrimarket_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var authAudit *audit.Service

// InitAuthController wires the login audit service into the auth handlers
func InitAuthController(auditService *audit.Service) {
	authAudit = auditService
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FarmName string `json:"farm_name" validate:"required"`
}

type LoginInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DeviceToken string `json:"device_token"`
}

type RequestResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func Register(c *fiber.Ctx) error {
	input := new(RegisterInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var existingUser model.User
	if err := database.GetDB().Where("email = ?", input.Email).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email already exists",
		})
	}

	username := slug.Make(input.FarmName)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not hash password",
		})
	}

	user := model.User{
		Email:    input.Email,
		Password: string(hashedPassword),
		Username: username,
		FarmName: input.FarmName,
	}

	if err := database.GetDB().Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create user",
		})
	}

	if email.GlobalEmailService != nil {
		if err := email.GlobalEmailService.SendWelcomeEmail(user.Email, user.FarmName); err != nil {
			log.Printf("Error sending welcome email to %s: %v", user.Email, err)
		}
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FarmName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"token":   token,
		"user":    user.GetPublicProfile(),
	})
}

// Login verifies credentials and records the attempt in the audit log.
// Audit calls never fail the login path.
func Login(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var user model.User
	if err := database.GetDB().Where("email = ?", input.Email).First(&user).Error; err != nil {
		authAudit.RecordFailedLogin(c, input.Email, "Invalid email")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		authAudit.RecordFailedLogin(c, input.Email, "Invalid password")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	attempt := authAudit.RecordSuccessfulLogin(c, user.ID, input.DeviceToken)

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FarmName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	response := fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":        user.ID,
			"email":     user.Email,
			"farm_name": user.FarmName,
		},
	}

	activity := authAudit.CheckSuspiciousActivity(user.ID)
	if activity.IsSuspicious {
		response["security_alert"] = activity

		if email.GlobalEmailService != nil && attempt != nil {
			err := email.GlobalEmailService.SendSecurityAlertEmail(
				user.Email,
				user.FarmName,
				activity.Reasons,
				attempt.Location,
				attempt.DeviceInfo,
			)
			if err != nil {
				log.Printf("Error sending security alert to %s: %v", user.Email, err)
			}
		}
	}

	return c.JSON(response)
}

// RequestPasswordReset issues a reset token. The response is the same
// whether or not the email exists, so account existence is not leaked.
func RequestPasswordReset(c *fiber.Ctx) error {
	input := new(RequestResetInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user model.User
	if err := database.GetDB().Where("email = ?", input.Email).First(&user).Error; err == nil {
		resetToken := uuid.New().String()
		expiresAt := time.Now().Add(time.Hour)

		updates := map[string]interface{}{
			"reset_token":            resetToken,
			"reset_token_expires_at": expiresAt,
		}
		if err := database.GetDB().Model(&user).Updates(updates).Error; err != nil {
			log.Printf("Error storing reset token for %s: %v", user.Email, err)
		} else if email.GlobalEmailService != nil {
			if err := email.GlobalEmailService.SendPasswordResetEmail(user.Email, resetToken); err != nil {
				log.Printf("Error sending password reset email to %s: %v", user.Email, err)
			}
		}
	}

	return c.JSON(fiber.Map{
		"message": "If that email is registered, a reset link is on its way",
	})
}

func ResetPassword(c *fiber.Ctx) error {
	input := new(ResetPasswordInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	// An empty token would match accounts that have no pending reset
	if err := validation.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user model.User
	if err := database.GetDB().Where("reset_token = ?", input.Token).First(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or expired reset token",
		})
	}

	if user.ResetTokenExpiresAt == nil || user.ResetTokenExpiresAt.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or expired reset token",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not hash password",
		})
	}

	updates := map[string]interface{}{
		"password":               string(hashedPassword),
		"reset_token":            "",
		"reset_token_expires_at": nil,
	}
	if err := database.GetDB().Model(&user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update password",
		})
	}

	if email.GlobalEmailService != nil {
		if err := email.GlobalEmailService.SendPasswordChangedEmail(user.Email); err != nil {
			log.Printf("Error sending password changed email to %s: %v", user.Email, err)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
	})
}

// GetMe returns the authenticated user's account
func GetMe(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch user",
		})
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":            user.ID,
			"email":         user.Email,
			"username":      user.Username,
			"farm_name":     user.FarmName,
			"last_login_at": user.LastLoginAt,
			"created_at":    user.CreatedAt,
		},
	})
}
