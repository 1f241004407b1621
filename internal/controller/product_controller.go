package controller

import (
	"agrimarket_backend/internal/model"
	"agrimarket_backend/pkg/database"
	"agrimarket_backend/pkg/utils/jwt"
	"agrimarket_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProductInput struct {
	Title       string                `json:"title" validate:"required"`
	Category    model.ProductCategory `json:"category" validate:"required"`
	Status      model.ProductStatus   `json:"status" validate:"required"`
	Price       float64               `json:"price" validate:"required,gt=0"`
	Unit        model.PriceUnit       `json:"unit" validate:"required"`
	Description string                `json:"description"`
	Attributes  datatypes.JSON        `json:"attributes"`
}

// CreateProduct adds a new listing to the caller's storefront
func CreateProduct(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	input := new(ProductInput)

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

	product := model.Product{
		UserID:      claims.UserID,
		Title:       input.Title,
		Category:    input.Category,
		Status:      input.Status,
		Price:       input.Price,
		Unit:        input.Unit,
		Description: input.Description,
		Attributes:  input.Attributes,
	}

	if err := database.GetDB().Create(&product).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct updates an existing listing (ownership checked by middleware)
func UpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	input := new(ProductInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var product model.Product
	if err := database.GetDB().First(&product, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	product.Title = input.Title
	product.Category = input.Category
	product.Status = input.Status
	product.Price = input.Price
	product.Unit = input.Unit
	product.Description = input.Description
	if input.Attributes != nil {
		product.Attributes = input.Attributes
	}

	if err := database.GetDB().Save(&product).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update product",
		})
	}

	return c.JSON(product)
}

// DeleteProduct removes a listing (ownership checked by middleware)
func DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := database.GetDB().Delete(&model.Product{}, id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete product",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Product deleted",
	})
}

// ListMyProducts lists all of the caller's listings, hidden ones included
func ListMyProducts(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var products []model.Product
	if err := database.GetDB().Where("user_id = ?", claims.UserID).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch products",
		})
	}

	return c.JSON(fiber.Map{
		"products": products,
	})
}

// ListUserProducts lists a farm's public storefront
func ListUserProducts(c *fiber.Ctx) error {
	username := c.Params("username")

	var user model.User
	if err := database.GetDB().Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Farm not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch farm",
		})
	}

	var products []model.Product
	if err := database.GetDB().
		Where("user_id = ? AND status <> ?", user.ID, model.ProductStatusHidden).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch products",
		})
	}

	return c.JSON(fiber.Map{
		"farm":     user.GetPublicProfile(),
		"products": products,
	})
}

// GetProductBySlug returns a single public listing
func GetProductBySlug(c *fiber.Ctx) error {
	username := c.Params("username")
	productSlug := c.Params("product_slug")

	var user model.User
	if err := database.GetDB().Where("username = ?", username).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Farm not found",
		})
	}

	var product model.Product
	err := database.GetDB().
		Where("user_id = ? AND slug = ? AND status <> ?", user.ID, productSlug, model.ProductStatusHidden).
		First(&product).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(fiber.Map{
		"farm":    user.GetPublicProfile(),
		"product": product,
	})
}
