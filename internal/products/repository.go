package products

import (
	"context"
	"strings"

	"github.com/angelmondragon/shelfstock-backend/internal/repo"
	pkgdb "github.com/angelmondragon/shelfstock-backend/pkg/db"
	"github.com/angelmondragon/shelfstock-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists products and their alternate identifiers.
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

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *Repository) CreateIdentifiers(ctx context.Context, identifiers []models.ProductIdentifier) error {
	if len(identifiers) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&identifiers).Error
}

// FindByID loads the product without identifiers.
func (r *Repository) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// NameTaken reports whether name is already used by a product.
func (r *Repository) NameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// TakenIdentifierValues returns the subset of values already assigned to any product.
func (r *Repository) TakenIdentifierValues(ctx context.Context, values []string) ([]string, error) {
	var taken []string
	if len(values) == 0 {
		return taken, nil
	}
	err := r.DB(ctx).
		Model(&models.ProductIdentifier{}).
		Where("identifier_value IN ?", values).
		Order("identifier_value ASC").
		Pluck("identifier_value", &taken).
		Error
	return taken, err
}

// StockedProductIDs returns the ids among productIDs that still have container contents.
func (r *Repository) StockedProductIDs(ctx context.Context, productIDs []string) ([]string, error) {
	var stocked []string
	if len(productIDs) == 0 {
		return stocked, nil
	}
	err := r.DB(ctx).
		Model(&models.ContainerContent{}).
		Distinct("product_id").
		Where("product_id IN ?", productIDs).
		Order("product_id ASC").
		Pluck("product_id", &stocked).
		Error
	return stocked, err
}

// DeleteByIDs removes the products (identifiers cascade) and returns how many rows went.
func (r *Repository) DeleteByIDs(ctx context.Context, productIDs []string) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).Where("product_id IN ?", productIDs).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// SearchByName matches case-insensitively on equality or substring. SQLite's LOWER and
// LIKE only fold ASCII, so on that dialect names are folded in Go instead.
func (r *Repository) SearchByName(ctx context.Context, fragment string) ([]models.Product, error) {
	conn := r.DB(ctx)
	if conn.Dialector.Name() == pkgdb.DialectSQLite {
		return searchByFoldedName(conn, fragment)
	}

	var products []models.Product
	err := conn.
		Where("LOWER(name) = LOWER(?) OR LOWER(name) LIKE LOWER(?) "+repo.LikeEscapeClause, fragment, repo.ContainsPattern(fragment)).
		Order("created_at ASC, product_id ASC").
		Find(&products).
		Error
	return products, err
}

func searchByFoldedName(conn *gorm.DB, fragment string) ([]models.Product, error) {
	rows, err := conn.Model(&models.Product{}).Order("created_at ASC, product_id ASC").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folded := strings.ToLower(fragment)
	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := conn.ScanRows(rows, &p); err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(p.Name), folded) {
			products = append(products, p)
		}
	}
	return products, rows.Err()
}

// SearchByID matches on id equality or substring.
func (r *Repository) SearchByID(ctx context.Context, fragment string) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("product_id = ? OR product_id LIKE ? "+repo.LikeEscapeClause, fragment, repo.ContainsPattern(fragment)).
		Order("created_at ASC, product_id ASC").
		Find(&products).
		Error
	return products, err
}

// IdentifiersFor loads the alternate identifiers of the products keyed by product id.
func (r *Repository) IdentifiersFor(ctx context.Context, productIDs []string) (map[string][]models.ProductIdentifier, error) {
	out := make(map[string][]models.ProductIdentifier, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []models.ProductIdentifier
	if err := r.DB(ctx).
		Where("product_id IN ?", productIDs).
		Order("identifier_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], row)
	}
	return out, nil
}
