package containers

import "time"

// MaxQuantity bounds a single add or remove to the range of the quantity column.
const MaxQuantity = 2147483647

// CreateContainersInput describes a batch of identical containers.
type CreateContainersInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	MaxCapacity int    `json:"max_capacity" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"required,gte=1,lte=1000"`
}

// QuantityChange carries the product count and targets one container line.
type QuantityChange struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=2147483647"`
}

// QuantityResult is the stored quantity after an add or remove.
type QuantityResult struct {
	ContainerID string `json:"container_id"`
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
}

// ContentLine is one product held by a container.
type ContentLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ContainerInfo summarizes a container and where it sits.
type ContainerInfo struct {
	ContainerID  string    `json:"container_id"`
	Name         string    `json:"name"`
	MaxCapacity  int       `json:"max_capacity"`
	ShelfID      *string   `json:"shelf_id"`
	ContentLines int       `json:"content_lines"`
	CreatedAt    time.Time `json:"created_at"`
}
