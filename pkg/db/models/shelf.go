package models

import "time"

// Shelf holds containers through ShelfContainer bindings. MaxLoadCapacity is recorded,
// never enforced.
type Shelf struct {
	ShelfID         string    `gorm:"column:shelf_id;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	MaxLoadCapacity int       `gorm:"column:max_load_capacity;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Shelf) TableName() string { return "shelves" }
