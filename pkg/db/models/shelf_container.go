package models

import "time"

// ShelfContainer binds a container to a shelf. container_id is unique, so a container
// is on at most one shelf at a time.
type ShelfContainer struct {
	ShelfContainerID int64     `gorm:"column:shelf_container_id;primaryKey;autoIncrement"`
	ShelfID          string    `gorm:"column:shelf_id;not null"`
	ContainerID      string    `gorm:"column:container_id;not null"`
	PlacedAt         time.Time `gorm:"column:placed_at;autoCreateTime"`
}

func (ShelfContainer) TableName() string { return "shelf_containers" }
