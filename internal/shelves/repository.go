package shelves

import (
	"context"

	"github.com/angelmondragon/shelfstock-backend/internal/repo"
	"github.com/angelmondragon/shelfstock-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists shelves and container bindings.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, shelf *models.Shelf) error {
	return r.DB(ctx).Create(shelf).Error
}

func (r *Repository) NameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Shelf{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *Repository) ShelfExists(ctx context.Context, shelfID string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Shelf{}).Where("shelf_id = ?", shelfID).Count(&count).Error
	return count > 0, err
}

// ExistingShelfIDs returns the subset of shelfIDs that are stored.
func (r *Repository) ExistingShelfIDs(ctx context.Context, shelfIDs []string) ([]string, error) {
	var found []string
	if len(shelfIDs) == 0 {
		return found, nil
	}
	err := r.DB(ctx).Model(&models.Shelf{}).Where("shelf_id IN ?", shelfIDs).Pluck("shelf_id", &found).Error
	return found, err
}

// ExistingContainerIDs returns the subset of containerIDs that are stored.
func (r *Repository) ExistingContainerIDs(ctx context.Context, containerIDs []string) ([]string, error) {
	var found []string
	if len(containerIDs) == 0 {
		return found, nil
	}
	err := r.DB(ctx).Model(&models.Container{}).Where("container_id IN ?", containerIDs).Pluck("container_id", &found).Error
	return found, err
}

// BindingsFor returns the existing bindings of the given containers.
func (r *Repository) BindingsFor(ctx context.Context, containerIDs []string) ([]models.ShelfContainer, error) {
	var bindings []models.ShelfContainer
	if len(containerIDs) == 0 {
		return bindings, nil
	}
	err := r.DB(ctx).
		Where("container_id IN ?", containerIDs).
		Order("shelf_container_id ASC").
		Find(&bindings).
		Error
	return bindings, err
}

// OccupiedShelfIDs returns the ids among shelfIDs that still have containers bound.
func (r *Repository) OccupiedShelfIDs(ctx context.Context, shelfIDs []string) ([]string, error) {
	var occupied []string
	if len(shelfIDs) == 0 {
		return occupied, nil
	}
	err := r.DB(ctx).
		Model(&models.ShelfContainer{}).
		Distinct("shelf_id").
		Where("shelf_id IN ?", shelfIDs).
		Order("shelf_id ASC").
		Pluck("shelf_id", &occupied).
		Error
	return occupied, err
}

func (r *Repository) CreateBindings(ctx context.Context, bindings []models.ShelfContainer) error {
	if len(bindings) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&bindings).Error
}

func (r *Repository) DeleteBindings(ctx context.Context, containerIDs []string) (int64, error) {
	if len(containerIDs) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).Where("container_id IN ?", containerIDs).Delete(&models.ShelfContainer{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteByIDs(ctx context.Context, shelfIDs []string) (int64, error) {
	if len(shelfIDs) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).Where("shelf_id IN ?", shelfIDs).Delete(&models.Shelf{})
	return res.RowsAffected, res.Error
}

// ContainerIDs lists the containers bound to the shelf in placement order.
func (r *Repository) ContainerIDs(ctx context.Context, shelfID string) ([]string, error) {
	var containerIDs []string
	err := r.DB(ctx).
		Model(&models.ShelfContainer{}).
		Where("shelf_id = ?", shelfID).
		Order("placed_at ASC, shelf_container_id ASC").
		Pluck("container_id", &containerIDs).
		Error
	return containerIDs, err
}
