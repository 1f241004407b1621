package model

import (
	gosimpleslug "github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product Categories
type ProductCategory string

const (
	CategoryVegetables ProductCategory = "Vegetables"
	CategoryFruits     ProductCategory = "Fruits"
	CategoryDairy      ProductCategory = "Dairy"
	CategoryMeat       ProductCategory = "Meat"
	CategoryEggs       ProductCategory = "Eggs"
	CategoryHoney      ProductCategory = "Honey"
	CategoryGrains     ProductCategory = "Grains"
	CategoryFlowers    ProductCategory = "Flowers"
	CategoryOther      ProductCategory = "Other"
)

// Product Status
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "Available"
	ProductStatusSoldOut   ProductStatus = "Sold Out"
	ProductStatusSeasonal  ProductStatus = "Out of Season"
	ProductStatusHidden    ProductStatus = "Hidden"
)

// Pricing Units
type PriceUnit string

const (
	UnitPerKg    PriceUnit = "kg"
	UnitPerPiece PriceUnit = "piece"
	UnitPerDozen PriceUnit = "dozen"
	UnitPerLiter PriceUnit = "liter"
	UnitPerBunch PriceUnit = "bunch"
	UnitPerCrate PriceUnit = "crate"
)

type Product struct {
	gorm.Model
	Title       string          `json:"title" gorm:"not null"`
	Slug        string          `json:"slug" gorm:"uniqueIndex:idx_user_product_slug;not null"`
	Category    ProductCategory `json:"category" gorm:"not null"`
	Status      ProductStatus   `json:"status" gorm:"not null"`
	Price       float64         `json:"price" gorm:"not null"`
	Unit        PriceUnit       `json:"unit" gorm:"not null"`
	Description string          `json:"description" gorm:"type:text"`

	// Free-form listing attributes (organic certification, harvest date, variety...)
	Attributes datatypes.JSON `json:"attributes"`

	UserID uint `json:"user_id" gorm:"uniqueIndex:idx_user_product_slug"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate fills the slug from the title when the caller did not set one
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		s := gosimpleslug.Make(p.Title)

		// Make sure the slug is unique within the seller's storefront
		var count int64
		tx.Model(&Product{}).Where("user_id = ? AND slug = ?", p.UserID, s).Count(&count)
		if count > 0 {
			s = s + "-" + p.CreatedAt.Format("20060102")
		}

		p.Slug = s
	}
	return nil
}
