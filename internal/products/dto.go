package products

import (
	"time"

	"github.com/angelmondragon/shelfstock-backend/pkg/db/models"
)

// IdentifierInput is an alternate code supplied on create.
type IdentifierInput struct {
	IdentifierType  string `json:"identifier_type" validate:"required,max=64"`
	IdentifierValue string `json:"identifier_value" validate:"required,max=255"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name          string            `json:"name" validate:"required,max=255"`
	Description   string            `json:"description" validate:"max=4000"`
	AdditionalIDs []IdentifierInput `json:"additional_ids" validate:"omitempty,dive"`
}

// IdentifierDTO is an alternate code as returned to callers.
type IdentifierDTO struct {
	IdentifierType  string `json:"identifier_type"`
	IdentifierValue string `json:"identifier_value"`
}

// ProductView is the read shape returned by every search.
type ProductView struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	ProductID     string          `json:"product_id"`
	AdditionalIDs []IdentifierDTO `json:"additional_ids"`
	DateAdded     time.Time       `json:"date_added"`
}

func newProductView(p models.Product, identifiers []models.ProductIdentifier) ProductView {
	view := ProductView{
		Name:          p.Name,
		Description:   p.Description,
		ProductID:     p.ProductID,
		AdditionalIDs: make([]IdentifierDTO, 0, len(identifiers)),
		DateAdded:     p.CreatedAt,
	}
	for _, ident := range identifiers {
		view.AdditionalIDs = append(view.AdditionalIDs, IdentifierDTO{
			IdentifierType:  ident.IdentifierType,
			IdentifierValue: ident.IdentifierValue,
		})
	}
	return view
}
