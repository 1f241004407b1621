package middleware

import (
	"agrimarket_backend/internal/model"
	"agrimarket_backend/pkg/database"
	"agrimarket_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

// CheckProductOwnership verifies the listing belongs to the caller
func CheckProductOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		productID := c.Params("id")

		var product model.Product
		if err := database.DB.First(&product, productID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}

		if product.UserID != claims.UserID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to access this product",
			})
		}

		return c.Next()
	}
}
