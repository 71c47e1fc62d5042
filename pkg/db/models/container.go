package models

import "time"

// Container holds quantities of products and may sit on one shelf.
type Container struct {
	ContainerID string    `gorm:"column:container_id;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	MaxCapacity int       `gorm:"column:max_capacity;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Container) TableName() string { return "containers" }
