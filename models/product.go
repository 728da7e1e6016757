package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryCakes     Category = "Cakes"
	CategoryPastries  Category = "Pastries"
	CategoryBread     Category = "Bread"
	CategoryCookies   Category = "Cookies"
	CategoryBeverages Category = "Beverages"
	CategorySeasonal  Category = "Seasonal"
	CategoryCustom    Category = "Custom"
)

func Categories() []Category {
	return []Category{
		CategoryCakes, CategoryPastries, CategoryBread, CategoryCookies,
		CategoryBeverages, CategorySeasonal, CategoryCustom,
	}
}

func (c Category) IsValid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

type ProductImage struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt"`
	IsPrimary bool      `json:"isPrimary"`
}

type Product struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	Price           float64        `db:"price" json:"price"`
	Category        Category       `db:"category" json:"category"`
	Images          []ProductImage `db:"-" json:"images"`
	Ingredients     []string       `db:"-" json:"ingredients,omitempty"`
	Allergens       []string       `db:"-" json:"allergens,omitempty"`
	Stock           int            `db:"stock" json:"stock"`
	IsActive        bool           `db:"is_active" json:"isActive"`
	IsFeatured      bool           `db:"is_featured" json:"isFeatured"`
	SalesCount      int            `db:"sales_count" json:"salesCount"`
	RatingAverage   float64        `db:"rating_average" json:"ratingAverage"`
	RatingCount     int            `db:"rating_count" json:"ratingCount"`
	PreparationTime int            `db:"preparation_time" json:"preparationTime"`
	Tags            []string       `db:"-" json:"tags,omitempty"`
	CreatedBy       *uuid.UUID     `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// PrimaryImage returns the image flagged primary, or the first image when none
// is flagged, or nil for a product without images.
func (p *Product) PrimaryImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	if len(p.Images) > 0 {
		return &p.Images[0]
	}
	return nil
}

// RemoveImage drops the image with the given id and returns it. When the
// removed image was primary and others remain, the first remaining image
// becomes primary so at most one image stays flagged.
func RemoveImage(images []ProductImage, imageID uuid.UUID) ([]ProductImage, *ProductImage) {
	for i := range images {
		if images[i].ID != imageID {
			continue
		}
		removed := images[i]
		images = append(images[:i], images[i+1:]...)
		if removed.IsPrimary && len(images) > 0 {
			images[0].IsPrimary = true
		}
		return images, &removed
	}
	return images, nil
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ProductInput is the create/update payload for a catalog entry.
type ProductInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	Category        Category `json:"category"`
	Stock           int      `json:"stock"`
	Ingredients     []string `json:"ingredients"`
	Allergens       []string `json:"allergens"`
	IsActive        *bool    `json:"isActive"`
	IsFeatured      bool     `json:"isFeatured"`
	PreparationTime int      `json:"preparationTime"`
	Tags            []string `json:"tags"`
}

func (in *ProductInput) Validate() []FieldError {
	var errs []FieldError
	if in.Name == "" {
		errs = append(errs, FieldError{"name", "Product name is required"})
	} else if len(in.Name) > 100 {
		errs = append(errs, FieldError{"name", "Product name cannot exceed 100 characters"})
	}
	if in.Description == "" {
		errs = append(errs, FieldError{"description", "Product description is required"})
	} else if len(in.Description) > 1000 {
		errs = append(errs, FieldError{"description", "Description cannot exceed 1000 characters"})
	}
	if in.Price < 0 {
		errs = append(errs, FieldError{"price", "Price must be a positive number"})
	}
	if !in.Category.IsValid() {
		errs = append(errs, FieldError{"category", "Invalid category"})
	}
	if in.Stock < 0 {
		errs = append(errs, FieldError{"stock", "Stock must be a non-negative integer"})
	}
	return errs
}
