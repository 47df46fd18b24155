package catalog

import (
	"context"
	"errors"
	"fmt"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"strings"
	"time"
)

var ErrProductNotFound = apperr.NotFound("Product not found")

const productColumns = `id, name, description, price, category, stock, image_url, is_active, created_at, updated_at`

type Repo struct{ DB *pgxpool.Pool }

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func (r *Repo) Insert(ctx context.Context, p Product) (Product, error) {
	err := scanProduct(r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, price, category, stock, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Stock, p.ImageURL), &p)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// Update touches active products only; an inactive one reads as missing.
func (r *Repo) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	var p Product
	err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, stock = $6, image_url = $7, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING `+productColumns,
		id, in.Name, in.Description, in.Price, in.Category, in.Stock, in.ImageURL), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Deactivate flips is_active only when it is still true, so a repeat call finds no row.
func (r *Repo) Deactivate(ctx context.Context, id string) (time.Time, error) {
	var at time.Time
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING updated_at`, id).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrProductNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("deactivate product: %w", err)
	}
	return at, nil
}

func (r *Repo) GetActive(ctx context.Context, id string) (Product, error) {
	var p Product
	err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 AND is_active`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repo) ListActive(ctx context.Context, f ProductFilter) ([]Product, error) {
	where := []string{"is_active"}
	var args []any
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE `+
		strings.Join(where, " AND ")+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
