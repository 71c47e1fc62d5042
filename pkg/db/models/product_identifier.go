package models

// ProductIdentifier is an alternate external code (UPC, ASIN, GTIN...) owned by a product.
// Values are globally unique and the row is deleted with its product.
type ProductIdentifier struct {
	IdentifierID    int64  `gorm:"column:identifier_id;primaryKey;autoIncrement"`
	ProductID       string `gorm:"column:product_id;not null"`
	IdentifierType  string `gorm:"column:identifier_type;not null"`
	IdentifierValue string `gorm:"column:identifier_value;not null"`
}

func (ProductIdentifier) TableName() string { return "product_identifiers" }
