package products

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
	OpCreateProduct         = "create_product"
	OpDeleteProducts        = "delete_products"
	OpAddProductIdentifiers = "add_product_identifiers"
	OpSearchByName          = "search_by_name"
	OpSearchByID            = "search_by_id"
	OpSearch                = "search"
)

// Service exposes product creation, deletion and search.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (string, error)
	DeleteProducts(ctx context.Context, productIDs []string) (int, error)
	AddProductIdentifiers(ctx context.Context, productID string, identifiers []IdentifierInput) (*ProductView, error)
	SearchByName(ctx context.Context, fragment string) ([]ProductView, error)
	SearchByID(ctx context.Context, fragment string) ([]ProductView, error)
	Search(ctx context.Context, term string) ([]ProductView, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	ids      *ids.Generator
	track    observe.Tracker
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, generator *ids.Generator, track observe.Tracker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
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

// CreateProduct stores the product and its alternate identifiers atomically.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (productID string, err error) {
	ctx, done := s.track.Start(ctx, OpCreateProduct)
	defer done(&err)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	identifiers, err := normalizeIdentifiers(input.AdditionalIDs)
	if err != nil {
		return "", err
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		taken, err := txRepo.NameTaken(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check product name")
		}
		if taken {
			return duplicateNameError(name)
		}
		if err := ensureIdentifiersFree(ctx, txRepo, identifiers); err != nil {
			return err
		}

		id, err := s.ids.Generate(ids.KindProduct)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate product id")
		}

		product := &models.Product{
			ProductID:   id,
			Name:        name,
			Description: input.Description,
		}
		if err := txRepo.Create(ctx, product); err != nil {
			return mapWriteError(err, name)
		}
		if err := txRepo.CreateIdentifiers(ctx, identifierRows(id, identifiers)); err != nil {
			return mapWriteError(err, name)
		}

		productID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return productID, nil
}

// DeleteProducts removes the listed products. Unknown ids are ignored; stocked products
// reject the whole batch.
func (s *service) DeleteProducts(ctx context.Context, productIDs []string) (deleted int, err error) {
	ctx, done := s.track.Start(ctx, OpDeleteProducts)
	defer done(&err)

	productIDs = repo.Dedupe(productIDs)
	if len(productIDs) == 0 {
		return 0, nil
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		stocked, err := txRepo.StockedProductIDs(ctx, productIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check container contents")
		}
		if len(stocked) > 0 {
			return pkgerrors.New(pkgerrors.CodeEntityInUse, fmt.Sprintf("product %s is still stocked in a container", stocked[0])).
				WithDetails(map[string]any{"product_ids": stocked})
		}

		n, err := txRepo.DeleteByIDs(ctx, productIDs)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeEntityInUse, err, "a product is still stocked in a container")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete products")
		}
		deleted = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if deleted < len(productIDs) {
		logg := s.track.Logger()
		logg.Warn(logg.WithFields(ctx, map[string]any{"requested": len(productIDs), "deleted": deleted}), "some products were not found")
	}
	return deleted, nil
}

// AddProductIdentifiers appends alternate identifiers to an existing product.
func (s *service) AddProductIdentifiers(ctx context.Context, productID string, input []IdentifierInput) (view *ProductView, err error) {
	ctx, done := s.track.Start(ctx, OpAddProductIdentifiers)
	defer done(&err)

	if len(input) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one identifier is required")
	}
	identifiers, err := normalizeIdentifiers(input)
	if err != nil {
		return nil, err
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByID(ctx, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}
		if err := ensureIdentifiersFree(ctx, txRepo, identifiers); err != nil {
			return err
		}
		if err := txRepo.CreateIdentifiers(ctx, identifierRows(productID, identifiers)); err != nil {
			return mapWriteError(err, "")
		}

		views, err := s.views(ctx, txRepo, []models.Product{*product})
		if err != nil {
			return err
		}
		view = &views[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SearchByName returns products whose name equals or contains fragment, ignoring case.
func (s *service) SearchByName(ctx context.Context, fragment string) (views []ProductView, err error) {
	ctx, done := s.track.Start(ctx, OpSearchByName)
	defer done(&err)

	if fragment == "" {
		return nil, emptyTermError()
	}
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		views, err = s.searchByName(ctx, s.repo.WithTx(tx), fragment)
		return err
	})
	return views, err
}

// SearchByID returns products whose id equals or contains fragment.
func (s *service) SearchByID(ctx context.Context, fragment string) (views []ProductView, err error) {
	ctx, done := s.track.Start(ctx, OpSearchByID)
	defer done(&err)

	if fragment == "" {
		return nil, emptyTermError()
	}
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		views, err = s.searchByID(ctx, s.repo.WithTx(tx), fragment)
		return err
	})
	return views, err
}

// Search concatenates name matches and id matches without deduplicating.
func (s *service) Search(ctx context.Context, term string) (views []ProductView, err error) {
	ctx, done := s.track.Start(ctx, OpSearch)
	defer done(&err)

	if term == "" {
		return nil, emptyTermError()
	}
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		byName, err := s.searchByName(ctx, txRepo, term)
		if err != nil {
			return err
		}
		byID, err := s.searchByID(ctx, txRepo, term)
		if err != nil {
			return err
		}
		views = append(byName, byID...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoResults, fmt.Sprintf("no products match %q", term)).
			WithDetails(map[string]any{"term": term})
	}
	return views, nil
}

func (s *service) searchByName(ctx context.Context, txRepo *Repository, fragment string) ([]ProductView, error) {
	found, err := txRepo.SearchByName(ctx, fragment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search products by name")
	}
	return s.views(ctx, txRepo, found)
}

// ids are lowercase hex, so folding the fragment keeps LIKE behavior identical across dialects.
func (s *service) searchByID(ctx context.Context, txRepo *Repository, fragment string) ([]ProductView, error) {
	found, err := txRepo.SearchByID(ctx, strings.ToLower(fragment))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search products by id")
	}
	return s.views(ctx, txRepo, found)
}

func (s *service) views(ctx context.Context, txRepo *Repository, found []models.Product) ([]ProductView, error) {
	productIDs := make([]string, 0, len(found))
	for _, p := range found {
		productIDs = append(productIDs, p.ProductID)
	}
	identifiers, err := txRepo.IdentifiersFor(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product identifiers")
	}

	views := make([]ProductView, 0, len(found))
	for _, p := range found {
		views = append(views, newProductView(p, identifiers[p.ProductID]))
	}
	return views, nil
}

func normalizeIdentifiers(input []IdentifierInput) ([]IdentifierInput, error) {
	out := make([]IdentifierInput, 0, len(input))
	seen := make(map[string]struct{}, len(input))
	for _, ident := range input {
		ident.IdentifierType = strings.TrimSpace(ident.IdentifierType)
		ident.IdentifierValue = strings.TrimSpace(ident.IdentifierValue)
		if ident.IdentifierType == "" || ident.IdentifierValue == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier_type and identifier_value are required")
		}
		if _, dup := seen[ident.IdentifierValue]; dup {
			return nil, duplicateIdentifierError([]string{ident.IdentifierValue})
		}
		seen[ident.IdentifierValue] = struct{}{}
		out = append(out, ident)
	}
	return out, nil
}

func ensureIdentifiersFree(ctx context.Context, txRepo *Repository, identifiers []IdentifierInput) error {
	if len(identifiers) == 0 {
		return nil
	}
	values := make([]string, 0, len(identifiers))
	for _, ident := range identifiers {
		values = append(values, ident.IdentifierValue)
	}
	taken, err := txRepo.TakenIdentifierValues(ctx, values)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check identifiers")
	}
	if len(taken) > 0 {
		return duplicateIdentifierError(taken)
	}
	return nil
}

func identifierRows(productID string, identifiers []IdentifierInput) []models.ProductIdentifier {
	rows := make([]models.ProductIdentifier, 0, len(identifiers))
	for _, ident := range identifiers {
		rows = append(rows, models.ProductIdentifier{
			ProductID:       productID,
			IdentifierType:  ident.IdentifierType,
			IdentifierValue: ident.IdentifierValue,
		})
	}
	return rows
}

// mapWriteError re-signals a constraint violation raised by an insert.
func mapWriteError(err error, name string) error {
	v, ok := db.ClassifyViolation(err)
	if !ok || v.Kind != db.ViolationUnique {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: write product")
	}
	switch {
	case v.IsPrimaryKey("product_id"):
		return pkgerrors.Wrap(pkgerrors.CodeCreateFailed, err, "generated product id collided with an existing product")
	case v.Involves("identifier_value"):
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateIdentifier, err, "an additional identifier is already assigned to another product")
	case v.Involves("name"):
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateName, err, fmt.Sprintf("product name %q already exists", name)).
			WithDetails(map[string]any{"name": name})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: write product")
	}
}

func duplicateNameError(name string) error {
	return pkgerrors.New(pkgerrors.CodeDuplicateName, fmt.Sprintf("product name %q already exists", name)).
		WithDetails(map[string]any{"name": name})
}

func duplicateIdentifierError(values []string) error {
	return pkgerrors.New(pkgerrors.CodeDuplicateIdentifier,
		fmt.Sprintf("identifier %q is already assigned to another product", values[0])).
		WithDetails(map[string]any{"identifier_values": values})
}

func emptyTermError() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
}
