package models

import "time"

// ContainerContent is the product-in-container junction. One row per (container, product).
type ContainerContent struct {
	ContentID   int64     `gorm:"column:content_id;primaryKey;autoIncrement"`
	ContainerID string    `gorm:"column:container_id;not null"`
	ProductID   string    `gorm:"column:product_id;not null"`
	Quantity    int       `gorm:"column:quantity;not null;default:0"`
	AddedAt     time.Time `gorm:"column:added_at;autoCreateTime"`
}

func (ContainerContent) TableName() string { return "container_contents" }
