package shelves

import (
	"context"
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
	OpCreateShelf      = "create_shelf"
	OpDeleteShelves    = "delete_shelves"
	OpBindContainers   = "bind_containers"
	OpUnbindContainers = "unbind_containers"
	OpInspectShelf     = "inspect_shelf"
)

// Service manages shelves and the containers bound to them.
type Service interface {
	CreateShelf(ctx context.Context, input CreateShelfInput) (string, error)
	DeleteShelves(ctx context.Context, shelfIDs []string) (int, error)
	BindContainers(ctx context.Context, bindings []Binding) error
	UnbindContainers(ctx context.Context, containerIDs []string) (int, error)
	InspectShelf(ctx context.Context, shelfID string) ([]string, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	ids      *ids.Generator
	track    observe.Tracker
}

// NewService constructs a shelf service instance.
func NewService(repo *Repository, dbClient *db.Client, generator *ids.Generator, track observe.Tracker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shelf repository required")
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

func (s *service) CreateShelf(ctx context.Context, input CreateShelfInput) (shelfID string, err error) {
	ctx, done := s.track.Start(ctx, OpCreateShelf)
	defer done(&err)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.MaxCapacity < 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "max_capacity cannot be negative")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		taken, err := txRepo.NameTaken(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check shelf name")
		}
		if taken {
			return duplicateNameError(name)
		}

		id, err := s.ids.Generate(ids.KindShelf)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate shelf id")
		}
		shelf := &models.Shelf{ShelfID: id, Name: name, MaxLoadCapacity: input.MaxCapacity}
		if err := txRepo.Create(ctx, shelf); err != nil {
			v, ok := db.ClassifyViolation(err)
			switch {
			case ok && v.IsPrimaryKey("shelf_id"):
				return pkgerrors.Wrap(pkgerrors.CodeCreateFailed, err, "generated shelf id collided with an existing shelf")
			case ok && v.Kind == db.ViolationUnique && v.Involves("name"):
				return duplicateNameError(name)
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert shelf")
			}
		}
		shelfID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return shelfID, nil
}

// DeleteShelves removes the listed shelves. Any targeted shelf with bound containers fails
// the whole batch.
func (s *service) DeleteShelves(ctx context.Context, shelfIDs []string) (deleted int, err error) {
	ctx, done := s.track.Start(ctx, OpDeleteShelves)
	defer done(&err)

	shelfIDs = repo.Dedupe(shelfIDs)
	if len(shelfIDs) == 0 {
		return 0, nil
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		occupied, err := txRepo.OccupiedShelfIDs(ctx, shelfIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check shelf bindings")
		}
		if len(occupied) > 0 {
			return shelfHasContainersError(occupied)
		}

		n, err := txRepo.DeleteByIDs(ctx, shelfIDs)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeShelfHasContainers, err, "a shelf still has containers bound to it; unbind them first")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete shelves")
		}
		deleted = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if deleted < len(shelfIDs) {
		logg := s.track.Logger()
		logg.Warn(logg.WithFields(ctx, map[string]any{"requested": len(shelfIDs), "deleted": deleted}), "some shelves were not found")
	}
	return deleted, nil
}

// BindContainers places every container on its shelf, or none of them.
func (s *service) BindContainers(ctx context.Context, bindings []Binding) (err error) {
	ctx, done := s.track.Start(ctx, OpBindContainers)
	defer done(&err)

	if len(bindings) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one binding is required")
	}

	containerIDs := make([]string, 0, len(bindings))
	shelfIDs := make([]string, 0, len(bindings))
	listed := make(map[string]struct{}, len(bindings))
	for _, b := range bindings {
		if b.ContainerID == "" || b.ShelfID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "container_id and shelf_id are required")
		}
		if _, dup := listed[b.ContainerID]; dup {
			return containerBoundError(b.ContainerID, "is listed more than once in the batch")
		}
		listed[b.ContainerID] = struct{}{}
		containerIDs = append(containerIDs, b.ContainerID)
		shelfIDs = append(shelfIDs, b.ShelfID)
	}
	shelfIDs = repo.Dedupe(shelfIDs)

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.BindingsFor(ctx, containerIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load bindings")
		}
		if len(existing) > 0 {
			return containerBoundError(existing[0].ContainerID, fmt.Sprintf("is already bound to shelf %s", existing[0].ShelfID))
		}

		if missing, err := missingIDs(ctx, txRepo.ExistingShelfIDs, shelfIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shelves")
		} else if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("shelf %s not found", missing[0])).
				WithDetails(map[string]any{"shelf_ids": missing})
		}
		if missing, err := missingIDs(ctx, txRepo.ExistingContainerIDs, containerIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load containers")
		} else if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("container %s not found", missing[0])).
				WithDetails(map[string]any{"container_ids": missing})
		}

		rows := make([]models.ShelfContainer, 0, len(bindings))
		for _, b := range bindings {
			rows = append(rows, models.ShelfContainer{ShelfID: b.ShelfID, ContainerID: b.ContainerID})
		}
		if err := txRepo.CreateBindings(ctx, rows); err != nil {
			v, ok := db.ClassifyViolation(err)
			switch {
			case ok && v.Kind == db.ViolationUnique:
				return pkgerrors.Wrap(pkgerrors.CodeContainerBound, err, "a container in the batch is already bound to a shelf")
			case ok && v.Kind == db.ViolationForeignKey:
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "a shelf or container in the batch does not exist")
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert bindings")
			}
		}
		return nil
	})
}

// UnbindContainers removes the shelf bindings of the containers. Unbound ids are no-ops.
func (s *service) UnbindContainers(ctx context.Context, containerIDs []string) (unbound int, err error) {
	ctx, done := s.track.Start(ctx, OpUnbindContainers)
	defer done(&err)

	containerIDs = repo.Dedupe(containerIDs)
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).DeleteBindings(ctx, containerIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete bindings")
		}
		unbound = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return unbound, nil
}

// InspectShelf lists the containers bound to the shelf. Unknown shelves are NOT_FOUND.
func (s *service) InspectShelf(ctx context.Context, shelfID string) (containerIDs []string, err error) {
	ctx, done := s.track.Start(ctx, OpInspectShelf)
	defer done(&err)

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		ok, err := txRepo.ShelfExists(ctx, shelfID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shelf")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("shelf %s not found", shelfID))
		}

		containerIDs, err = txRepo.ContainerIDs(ctx, shelfID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list shelf containers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if containerIDs == nil {
		containerIDs = []string{}
	}
	return containerIDs, nil
}

func missingIDs(ctx context.Context, lookup func(context.Context, []string) ([]string, error), wanted []string) ([]string, error) {
	found, err := lookup(ctx, wanted)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []string
	for _, id := range wanted {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func duplicateNameError(name string) error {
	return pkgerrors.New(pkgerrors.CodeDuplicateName, fmt.Sprintf("shelf name %q already exists", name)).
		WithDetails(map[string]any{"name": name})
}

func containerBoundError(containerID, reason string) error {
	return pkgerrors.New(pkgerrors.CodeContainerBound, fmt.Sprintf("container %s %s", containerID, reason)).
		WithDetails(map[string]any{"container_id": containerID})
}

func shelfHasContainersError(shelfIDs []string) error {
	return pkgerrors.New(pkgerrors.CodeShelfHasContainers,
		fmt.Sprintf("shelf %s still has containers bound to it; unbind them first", shelfIDs[0])).
		WithDetails(map[string]any{"shelf_ids": shelfIDs})
}
