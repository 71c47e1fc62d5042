package containers

import (
	"context"
	"errors"

	"github.com/angelmondragon/shelfstock-backend/internal/repo"
	"github.com/angelmondragon/shelfstock-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrQuantityOverflow reports an increment that would push a line past MaxQuantity.
var ErrQuantityOverflow = errors.New("quantity would exceed the storable maximum")

// Repository persists containers and their contents.
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

func (r *Repository) CreateMany(ctx context.Context, containers []models.Container) error {
	if len(containers) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&containers).Error
}

func (r *Repository) FindByID(ctx context.Context, containerID string) (*models.Container, error) {
	var container models.Container
	if err := r.DB(ctx).First(&container, "container_id = ?", containerID).Error; err != nil {
		return nil, err
	}
	return &container, nil
}

func (r *Repository) ContainerExists(ctx context.Context, containerID string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Container{}).Where("container_id = ?", containerID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) ProductExists(ctx context.Context, productID string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("product_id = ?", productID).Count(&count).Error
	return count > 0, err
}

// Increment adds count to the (container, product) line in one statement, inserting the
// line when it does not exist yet, and returns the stored quantity. The update is skipped,
// and ErrQuantityOverflow returned, when the sum would pass MaxQuantity.
func (r *Repository) Increment(ctx context.Context, containerID, productID string, count int) (int, error) {
	line := models.ContainerContent{
		ContainerID: containerID,
		ProductID:   productID,
		Quantity:    count,
	}
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "container_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("container_contents.quantity + excluded.quantity"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("container_contents.quantity <= ? - excluded.quantity", MaxQuantity),
			}},
		}).
		Create(&line)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrQuantityOverflow
	}

	stored, err := r.FindLine(ctx, containerID, productID)
	if err != nil {
		return 0, err
	}
	return stored.Quantity, nil
}

// Decrement subtracts quantity only when enough is stored. It reports false, leaving the
// row untouched, when the line is missing or holds less than quantity.
func (r *Repository) Decrement(ctx context.Context, containerID, productID string, quantity int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.ContainerContent{}).
		Where("container_id = ? AND product_id = ? AND quantity >= ?", containerID, productID, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) FindLine(ctx context.Context, containerID, productID string) (*models.ContainerContent, error) {
	var line models.ContainerContent
	if err := r.DB(ctx).
		Where("container_id = ? AND product_id = ?", containerID, productID).
		Take(&line).
		Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// Contents lists the lines of a container in insertion order.
func (r *Repository) Contents(ctx context.Context, containerID string) ([]models.ContainerContent, error) {
	var lines []models.ContainerContent
	err := r.DB(ctx).
		Where("container_id = ?", containerID).
		Order("content_id ASC").
		Find(&lines).
		Error
	return lines, err
}

// Binding returns the shelf binding of the container, or nil when it is not shelved.
func (r *Repository) Binding(ctx context.Context, containerID string) (*models.ShelfContainer, error) {
	var bindings []models.ShelfContainer
	if err := r.DB(ctx).Where("container_id = ?", containerID).Limit(1).Find(&bindings).Error; err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, nil
	}
	return &bindings[0], nil
}

// InUse returns the ids among containerIDs that still hold contents or sit on a shelf.
func (r *Repository) InUse(ctx context.Context, containerIDs []string) ([]string, error) {
	var stocked, shelved []string
	if len(containerIDs) == 0 {
		return nil, nil
	}
	if err := r.DB(ctx).
		Model(&models.ContainerContent{}).
		Distinct("container_id").
		Where("container_id IN ?", containerIDs).
		Pluck("container_id", &stocked).
		Error; err != nil {
		return nil, err
	}
	if err := r.DB(ctx).
		Model(&models.ShelfContainer{}).
		Where("container_id IN ?", containerIDs).
		Pluck("container_id", &shelved).
		Error; err != nil {
		return nil, err
	}

	busy := make(map[string]struct{}, len(stocked)+len(shelved))
	for _, id := range append(stocked, shelved...) {
		busy[id] = struct{}{}
	}
	out := make([]string, 0, len(busy))
	for _, id := range containerIDs {
		if _, ok := busy[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *Repository) DeleteByIDs(ctx context.Context, containerIDs []string) (int64, error) {
	if len(containerIDs) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).Where("container_id IN ?", containerIDs).Delete(&models.Container{})
	return res.RowsAffected, res.Error
}
