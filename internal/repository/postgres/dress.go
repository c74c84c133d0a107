package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/repository"
	"github.com/utafrali/dressrental/pkg/database"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

const dressColumns = `id, name, slug, description, price, sale_price, sizes, colors, images, category, featured, available, created_at, updated_at`

// DressRepository implements repository.DressRepository using PostgreSQL.
type DressRepository struct {
	db database.DBTX
}

// NewDressRepository creates a new PostgreSQL-backed dress repository.
func NewDressRepository(db database.DBTX) *DressRepository {
	return &DressRepository{db: db}
}

// Create inserts a new dress and sets its generated ID.
func (r *DressRepository) Create(ctx context.Context, d *domain.Dress) error {
	query := `
		INSERT INTO dresses (name, slug, description, price, sale_price, sizes, colors, images, category, featured, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		d.Name,
		d.Slug,
		d.Description,
		d.Price,
		d.SalePrice,
		d.Sizes,
		d.Colors,
		d.Images,
		d.Category,
		d.Featured,
		d.Available,
		d.CreatedAt,
		d.UpdatedAt,
	).Scan(&d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("dress", "slug", d.Slug)
		}
		return fmt.Errorf("insert dress: %w", err)
	}

	return nil
}

// GetByID retrieves a dress by its ID.
func (r *DressRepository) GetByID(ctx context.Context, id int64) (*domain.Dress, error) {
	query := `SELECT ` + dressColumns + ` FROM dresses WHERE id = $1`
	return r.scanDress(ctx, query, id)
}

// GetBySlug retrieves a dress by its slug.
func (r *DressRepository) GetBySlug(ctx context.Context, slug string) (*domain.Dress, error) {
	query := `SELECT ` + dressColumns + ` FROM dresses WHERE slug = $1`
	return r.scanDress(ctx, query, slug)
}

// List returns every dress matching the filter, newest first.
func (r *DressRepository) List(ctx context.Context, filter repository.DressFilter) (dresses []domain.Dress, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}

	if len(filter.Sizes) > 0 {
		conditions = append(conditions, fmt.Sprintf("sizes && $%d", argIndex))
		args = append(args, filter.Sizes)
		argIndex++
	}

	if len(filter.Colors) > 0 {
		conditions = append(conditions, fmt.Sprintf("colors && $%d", argIndex))
		args = append(args, filter.Colors)
		argIndex++
	}

	if filter.Available != nil {
		conditions = append(conditions, fmt.Sprintf("available = $%d", argIndex))
		args = append(args, *filter.Available)
		argIndex++
	}

	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("featured = $%d", argIndex))
		args = append(args, *filter.Featured)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM dresses %s ORDER BY created_at DESC, id DESC`, dressColumns, whereClause)

	ctx, end := database.TraceQuery(ctx, "ListDresses", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dresses: %w", err)
	}
	return collectDresses(rows)
}

// ListFeatured returns up to limit available featured dresses, newest first.
func (r *DressRepository) ListFeatured(ctx context.Context, limit int) ([]domain.Dress, error) {
	query := `SELECT ` + dressColumns + `
		FROM dresses
		WHERE featured AND available
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured dresses: %w", err)
	}
	return collectDresses(rows)
}

// SlugExists reports whether a dress already uses slug.
func (r *DressRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dresses WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check dress slug: %w", err)
	}
	return exists, nil
}

// Update modifies an existing dress in the database.
func (r *DressRepository) Update(ctx context.Context, d *domain.Dress) error {
	d.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE dresses
		SET name = $1, slug = $2, description = $3, price = $4, sale_price = $5, sizes = $6,
		    colors = $7, images = $8, category = $9, featured = $10, available = $11, updated_at = $12
		WHERE id = $13`

	ct, err := r.db.Exec(ctx, query,
		d.Name,
		d.Slug,
		d.Description,
		d.Price,
		d.SalePrice,
		d.Sizes,
		d.Colors,
		d.Images,
		d.Category,
		d.Featured,
		d.Available,
		d.UpdatedAt,
		d.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("dress", "slug", d.Slug)
		}
		return fmt.Errorf("update dress: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("dress", strconv.FormatInt(d.ID, 10))
	}

	return nil
}

// Delete removes a dress from the database by its ID.
func (r *DressRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM dresses WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("dress has rentals; mark it unavailable instead")
		}
		return fmt.Errorf("delete dress: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("dress", strconv.FormatInt(id, 10))
	}

	return nil
}

func (r *DressRepository) scanDress(ctx context.Context, query string, args ...any) (*domain.Dress, error) {
	d, err := scanDressRow(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan dress: %w", err)
	}
	return d, nil
}

func scanDressRow(row pgx.Row) (*domain.Dress, error) {
	var d domain.Dress
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Slug,
		&d.Description,
		&d.Price,
		&d.SalePrice,
		&d.Sizes,
		&d.Colors,
		&d.Images,
		&d.Category,
		&d.Featured,
		&d.Available,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDresses(rows pgx.Rows) ([]domain.Dress, error) {
	defer rows.Close()

	dresses := []domain.Dress{}
	for rows.Next() {
		d, err := scanDressRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dress row: %w", err)
		}
		dresses = append(dresses, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dress rows: %w", err)
	}

	return dresses, nil
}
