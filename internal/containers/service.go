package containers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/shelfstock-backend/internal/observe"
	"github.com/angelmondragon/shelfstock-backend/internal/repo"
	"github.com/angelmondragon/shelfstock-backend/pkg/db"
	"github.com/angelmondragon/shelfstock-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
	"github.com/angelmondragon/shelfstock-backend/pkg/ids"
	"gorm.io/gorm"
)

const (
	OpCreateContainers = "create_containers"
	OpDeleteContainers = "delete_containers"
	OpAddProduct       = "add_product"
	OpRemoveProduct    = "remove_product"
	OpInspectContainer = "inspect_container"
	OpLookupContainer  = "lookup_container"
)

// Service manages containers and the product quantities they hold.
type Service interface {
	CreateContainers(ctx context.Context, input CreateContainersInput) ([]string, error)
	DeleteContainers(ctx context.Context, containerIDs []string) (int, error)
	AddProduct(ctx context.Context, productID, containerID string, count int) (*QuantityResult, error)
	RemoveProduct(ctx context.Context, productID, containerID string, quantity int) (*QuantityResult, error)
	InspectContainer(ctx context.Context, containerID string) ([]ContentLine, error)
	LookupContainer(ctx context.Context, containerID string) (*ContainerInfo, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	ids      *ids.Generator
	track    observe.Tracker
}

// NewService constructs a container service instance.
func NewService(repo *Repository, dbClient *db.Client, generator *ids.Generator, track observe.Tracker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("container repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if generator == nil {
		return nil, fmt.Errorf("id generator required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		ids:      generator,
		track:    track,
	}, nil
}

// CreateContainers creates input.Quantity containers sharing name and capacity and returns
// their ids in creation order.
func (s *service) CreateContainers(ctx context.Context, input CreateContainersInput) (created []string, err error) {
	ctx, done := s.track.Start(ctx, OpCreateContainers)
	defer done(&err)

	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case input.Quantity < 1:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	case input.MaxCapacity < 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_capacity cannot be negative")
	}

	containerIDs, err := s.ids.GenerateN(ids.KindContainer, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate container ids")
	}

	rows := make([]models.Container, 0, len(containerIDs))
	for _, id := range containerIDs {
		rows = append(rows, models.Container{
			ContainerID: id,
			Name:        name,
			MaxCapacity: input.MaxCapacity,
		})
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateMany(ctx, rows); err != nil {
			if v, ok := db.ClassifyViolation(err); ok && v.IsPrimaryKey("container_id") {
				return pkgerrors.Wrap(pkgerrors.CodeCreateFailed, err, "generated container id collided with an existing container")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert containers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return containerIDs, nil
}

// DeleteContainers removes empty, unshelved containers. Unknown ids are ignored.
func (s *service) DeleteContainers(ctx context.Context, containerIDs []string) (deleted int, err error) {
	ctx, done := s.track.Start(ctx, OpDeleteContainers)
	defer done(&err)

	containerIDs = repo.Dedupe(containerIDs)
	if len(containerIDs) == 0 {
		return 0, nil
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		busy, err := txRepo.InUse(ctx, containerIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check container usage")
		}
		if len(busy) > 0 {
			return pkgerrors.New(pkgerrors.CodeEntityInUse, fmt.Sprintf("container %s still holds products or sits on a shelf", busy[0])).
				WithDetails(map[string]any{"container_ids": busy})
		}

		n, err := txRepo.DeleteByIDs(ctx, containerIDs)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeEntityInUse, err, "a container still holds products or sits on a shelf")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete containers")
		}
		deleted = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if deleted < len(containerIDs) {
		logg := s.track.Logger()
		logg.Warn(logg.WithFields(ctx, map[string]any{"requested": len(containerIDs), "deleted": deleted}), "some containers were not found")
	}
	return deleted, nil
}

// AddProduct increments the stored quantity of productID in containerID by count.
func (s *service) AddProduct(ctx context.Context, productID, containerID string, count int) (result *QuantityResult, err error) {
	ctx, done := s.track.Start(ctx, OpAddProduct)
	defer done(&err)

	if count < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "count must be a positive integer")
	}
	if count > MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("count must not exceed %d", MaxQuantity))
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := ensureExists(ctx, txRepo, productID, containerID); err != nil {
			return err
		}

		quantity, err := txRepo.Increment(ctx, containerID, productID, count)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product or container not found")
			}
			if errors.Is(err, ErrQuantityOverflow) || db.IsOutOfRange(err) {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err,
					fmt.Sprintf("adding %d would exceed the storable quantity of product %s in container %s", count, productID, containerID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment container content")
		}
		result = &QuantityResult{ContainerID: containerID, ProductID: productID, Quantity: quantity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveProduct decrements the stored quantity. The line must exist and hold at least
// quantity; a line reaching zero is kept.
func (s *service) RemoveProduct(ctx context.Context, productID, containerID string, quantity int) (result *QuantityResult, err error) {
	ctx, done := s.track.Start(ctx, OpRemoveProduct)
	defer done(&err)

	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	if quantity > MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", MaxQuantity))
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		applied, err := txRepo.Decrement(ctx, containerID, productID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement container content")
		}

		line, err := txRepo.FindLine(ctx, containerID, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s is not stored in container %s", productID, containerID))
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load container content")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeInsufficientQuantity,
				fmt.Sprintf("cannot remove %d of product %s: container %s holds %d", quantity, productID, containerID, line.Quantity)).
				WithDetails(map[string]any{"requested": quantity, "available": line.Quantity})
		}

		result = &QuantityResult{ContainerID: containerID, ProductID: productID, Quantity: line.Quantity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// InspectContainer lists the container's lines. Unknown containers yield an empty list.
func (s *service) InspectContainer(ctx context.Context, containerID string) (lines []ContentLine, err error) {
	ctx, done := s.track.Start(ctx, OpInspectContainer)
	defer done(&err)

	lines = []ContentLine{}
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).Contents(ctx, containerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list container contents")
		}
		for _, row := range rows {
			lines = append(lines, ContentLine{ProductID: row.ProductID, Quantity: row.Quantity})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// LookupContainer returns the container record with its shelf and line count.
func (s *service) LookupContainer(ctx context.Context, containerID string) (info *ContainerInfo, err error) {
	ctx, done := s.track.Start(ctx, OpLookupContainer)
	defer done(&err)

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		container, err := txRepo.FindByID(ctx, containerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("container %s not found", containerID))
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load container")
		}
		binding, err := txRepo.Binding(ctx, containerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shelf binding")
		}
		lines, err := txRepo.Contents(ctx, containerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list container contents")
		}

		info = &ContainerInfo{
			ContainerID:  container.ContainerID,
			Name:         container.Name,
			MaxCapacity:  container.MaxCapacity,
			ContentLines: len(lines),
			CreatedAt:    container.CreatedAt,
		}
		if binding != nil {
			shelfID := binding.ShelfID
			info.ShelfID = &shelfID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func ensureExists(ctx context.Context, txRepo *Repository, productID, containerID string) error {
	ok, err := txRepo.ContainerExists(ctx, containerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load container")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("container %s not found", containerID))
	}
	ok, err = txRepo.ProductExists(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
	}
	return nil
}
