package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DeH-M/MachTrueke/internal/domain"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
	AddImage(ctx context.Context, image *domain.ProductImage) error
}

type productRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewProductRepository(db *pgxpool.Pool, log logger.Logger) ProductRepository {
	return &productRepository{db: db, log: log}
}

const productColumns = `id, title, description, owner_id, is_active, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (title, description, owner_id, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		product.Title, product.Description, product.OwnerID, product.IsActive,
	).Scan(&product.ID, &product.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create product", "error", err, "owner_id", product.OwnerID)
		return err
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product := &domain.Product{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&product.ID, &product.Title, &product.Description, &product.OwnerID,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrProductNotFound
		}
		r.log.Error("Failed to get product", "error", err, "product_id", id)
		return nil, err
	}

	if err := r.loadImages(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active = TRUE
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`

	return r.queryProducts(ctx, query, limit, offset)
}

func (r *productRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE owner_id = $1
		ORDER BY id DESC
	`

	return r.queryProducts(ctx, query, ownerID)
}

func (r *productRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE products SET is_active = FALSE, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to deactivate product", "error", err, "product_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return appErrors.ErrProductNotFound
	}

	return nil
}

func (r *productRepository) AddImage(ctx context.Context, image *domain.ProductImage) error {
	query := `
		INSERT INTO product_images (product_id, url)
		VALUES ($1, $2)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, image.ProductID, image.URL).Scan(&image.ID)
	if err != nil {
		r.log.Error("Failed to add product image", "error", err, "product_id", image.ProductID)
		return err
	}

	return nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list products", "error", err)
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
			&product.ID, &product.Title, &product.Description, &product.OwnerID,
			&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan product", "error", err)
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadImages(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) loadImages(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(products))
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	query := `
		SELECT id, product_id, url
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to load product images", "error", err)
		return err
	}
	defer rows.Close()

	for rows.Next() {
		image := &domain.ProductImage{}
		if err := rows.Scan(&image.ID, &image.ProductID, &image.URL); err != nil {
			r.log.Error("Failed to scan product image", "error", err)
			return err
		}
		if product, ok := byID[image.ProductID]; ok {
			product.Images = append(product.Images, image)
		}
	}

	return rows.Err()
}
