package controller

import (
	"agrimarket_backend/pkg/audit"
	"agrimarket_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

const LoginHistoryLimit = 20

var securityAudit *audit.Service

func InitSecurityController(auditService *audit.Service) {
	securityAudit = auditService
}

// GetLoginHistory returns the caller's recent login attempts, newest first
func GetLoginHistory(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	attempts := securityAudit.RecentAttempts(claims.UserID, LoginHistoryLimit)

	return c.JSON(fiber.Map{
		"attempts": attempts,
	})
}

// GetSecurityActivity runs the anomaly check for the caller's own account
func GetSecurityActivity(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	return c.JSON(securityAudit.CheckSuspiciousActivity(claims.UserID))
}

// GetLoginStats returns platform-wide login statistics (admin only)
func GetLoginStats(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}

	return c.JSON(securityAudit.GetLoginStatistics(days))
}

// CleanupLoginAttempts triggers the retention sweep manually (admin only)
func CleanupLoginAttempts(c *fiber.Ctx) error {
	days := c.QueryInt("days", 90)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}

	deleted := securityAudit.CleanupOldRecords(days)

	return c.JSON(fiber.Map{
		"deleted": deleted,
	})
}
