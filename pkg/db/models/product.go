package models

import "time"

// Product is a catalog entry. Its id is generated by pkg/ids with the "p" prefix.
type Product struct {
	ProductID   string    `gorm:"column:product_id;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
