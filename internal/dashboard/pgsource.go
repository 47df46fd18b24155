package dashboard

import (
	"context"
	"fmt"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGSource reads from Postgres. Revenue amounts are fetched row by row and summed by the caller.
type PGSource struct{ DB *pgxpool.Pool }

func (s *PGSource) count(ctx context.Context, q string, args ...any) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PGSource) CountActiveProducts(ctx context.Context) (int, error) {
	n, err := s.count(ctx, `SELECT count(*) FROM products WHERE is_active`)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (s *PGSource) CountOrders(ctx context.Context) (int, error) {
	n, err := s.count(ctx, `SELECT count(*) FROM orders`)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (s *PGSource) CountOrdersWithStatus(ctx context.Context, status string) (int, error) {
	n, err := s.count(ctx, `SELECT count(*) FROM orders WHERE status = $1`, status)
	if err != nil {
		return 0, fmt.Errorf("count %s orders: %w", status, err)
	}
	return n, nil
}

func (s *PGSource) BillableAmounts(ctx context.Context) ([]decimal.Decimal, error) {
	rows, err := s.DB.Query(ctx, `SELECT total_amount FROM orders WHERE status <> 'Cancelled'`)
	if err != nil {
		return nil, fmt.Errorf("order amounts: %w", err)
	}
	defer rows.Close()
	var out []decimal.Decimal
	for rows.Next() {
		var d decimal.Decimal
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGSource) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, customer_name, total_amount, status, created_at
		FROM orders ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()
	out := []RecentOrder{}
	for rows.Next() {
		var o RecentOrder
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.TotalAmount, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
