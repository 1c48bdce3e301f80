package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/shortland/backend/internal/domain/catalog"
	"github.com/shortland/backend/internal/ports"
)

// ProductsRepo implements persistence for the catalog.
type ProductsRepo struct{}

func NewProductsRepo() ports.ProductRepository {
	return &ProductsRepo{}
}

func (r *ProductsRepo) ListAll(ctx context.Context) ([]catalog.Product, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, name, description, (price*100)::bigint, stock, image_url, category_id, created_at
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Product
	for rows.Next() {
		var p catalog.Product
		err = rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CategoryID, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var p catalog.Product
	err = tx.QueryRow(ctx, `
		SELECT id, name, description, (price*100)::bigint, stock, image_url, category_id, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CategoryID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductsRepo) Create(ctx context.Context, p *catalog.Product) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, stock, image_url, category_id)
		VALUES ($1, $2, $3, $4::numeric/100, $5, $6, $7)
		RETURNING created_at
	`, p.ID, p.Name, p.Description, int64(p.Price), p.Stock, p.ImageURL, p.CategoryID).Scan(&p.CreatedAt)
}

func (r *ProductsRepo) Update(ctx context.Context, p *catalog.Product) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3::numeric/100, stock = $4, image_url = $5, category_id = $6
		WHERE id = $7
	`, p.Name, p.Description, int64(p.Price), p.Stock, p.ImageURL, p.CategoryID, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (r *ProductsRepo) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
