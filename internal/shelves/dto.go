package shelves

// CreateShelfInput holds the validated payload to create a shelf.
type CreateShelfInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	MaxCapacity int    `json:"max_capacity" validate:"gte=0"`
}

// Binding places a container on a shelf.
type Binding struct {
	ContainerID string `json:"container_id" validate:"required"`
	ShelfID     string `json:"shelf_id" validate:"required"`
}
