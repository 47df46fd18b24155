package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"strings"
)

// ErrOrderNotFound is returned both for a missing order and for an order the
// caller does not own.
var ErrOrderNotFound = apperr.NotFound("Order not found")

const orderColumns = `id, user_id, status, total_amount, customer_name, customer_email, customer_phone, created_at, updated_at`

type Repo struct{ DB *pgxpool.Pool }

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CustomerName,
		&o.CustomerEmail, &o.CustomerPhone, &o.CreatedAt, &o.UpdatedAt)
}

// ApplyStatus updates the order and appends its tracking entry in one transaction.
// updated_at is bumped past its previous value even when the clock has not moved.
func (r *Repo) ApplyStatus(ctx context.Context, orderID string, status Status, description string) (Order, TrackingEntry, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, TrackingEntry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o Order
	err = scanOrder(tx.QueryRow(ctx, `
		UPDATE orders
		SET status = $2,
		    updated_at = greatest(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING `+orderColumns, orderID, string(status)), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, TrackingEntry{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, TrackingEntry{}, fmt.Errorf("update order status: %w", err)
	}

	e := TrackingEntry{OrderID: orderID, Status: status, Description: description}
	err = tx.QueryRow(ctx, `
		INSERT INTO order_tracking(order_id, status, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, orderID, string(status), description, o.UpdatedAt).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Order{}, TrackingEntry{}, fmt.Errorf("insert tracking: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, TrackingEntry{}, err
	}
	return o, e, nil
}

// AppendTracking inserts a raw entry only if the order exists.
func (r *Repo) AppendTracking(ctx context.Context, orderID string, status Status, description string) (TrackingEntry, error) {
	e := TrackingEntry{OrderID: orderID, Status: status, Description: description}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO order_tracking(order_id, status, description)
		SELECT id, $2, $3 FROM orders WHERE id = $1
		RETURNING id, created_at`, orderID, string(status), description).Scan(&e.ID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TrackingEntry{}, ErrOrderNotFound
	}
	if err != nil {
		return TrackingEntry{}, fmt.Errorf("append tracking: %w", err)
	}
	return e, nil
}

// FindTrackedOrder filters by owner when userID is non-empty.
func (r *Repo) FindTrackedOrder(ctx context.Context, orderID, userID string) (TrackedOrder, error) {
	var o TrackedOrder
	err := r.DB.QueryRow(ctx, `
		SELECT id, status, total_amount, created_at, customer_name, customer_phone
		FROM orders
		WHERE id = $1 AND ($2::text = '' OR user_id = $2)`, orderID, userID).
		Scan(&o.ID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.CustomerName, &o.CustomerPhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return TrackedOrder{}, ErrOrderNotFound
	}
	if err != nil {
		return TrackedOrder{}, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

func (r *Repo) History(ctx context.Context, orderID string) ([]TrackingEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, status, description, created_at
		FROM order_tracking
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("tracking history: %w", err)
	}
	defer rows.Close()

	out := []TrackingEntry{}
	for rows.Next() {
		var e TrackingEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// OrderStatus reads the current status, owner-filtered when userID is non-empty.
func (r *Repo) OrderStatus(ctx context.Context, orderID, userID string) (Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND ($2::text = '' OR user_id = $2)`, orderID, userID), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("order status: %w", err)
	}
	return o, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) (OrderPage, error) {
	var (
		where []string
		args  []any
	)
	if q.Status != "" {
		args = append(args, q.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(id ILIKE $%d OR customer_name ILIKE $%d OR customer_email ILIKE $%d)", n, n, n))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	page := OrderPage{Page: q.Page, Limit: q.Limit, Orders: []Order{}}
	if err := r.DB.QueryRow(ctx, `SELECT count(*) FROM orders`+cond, args...).Scan(&page.Total); err != nil {
		return OrderPage{}, fmt.Errorf("count orders: %w", err)
	}
	page.Pages = pageCount(page.Total, q.Limit)

	args = append(args, q.Limit, q.Offset())
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders`+cond+
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return OrderPage{}, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return OrderPage{}, err
	}
	page.Orders = orders
	return page, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	return orders, r.attachItems(ctx, orders)
}

func (r *Repo) Get(ctx context.Context, orderID string) (Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	list := []Order{o}
	if err := r.attachItems(ctx, list); err != nil {
		return Order{}, err
	}
	return list[0], nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	idx := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		idx[orders[i].ID] = i
		orders[i].Items = []OrderItem{}
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return err
		}
		i := idx[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return rows.Err()
}

// PlaceOrderTx prices items from active products, locks and decrements stock,
// and writes the order, its items and the first tracking entry. Nothing is
// committed if any item is unknown or short on stock.
func (r *Repo) PlaceOrderTx(ctx context.Context, userID string, in PlaceOrderInput) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.ProductID)
	}
	// lock in id order so concurrent checkouts cannot deadlock
	rows, err := tx.Query(ctx, `
		SELECT id, name, price, stock FROM products
		WHERE id = ANY($1) AND is_active
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return Order{}, fmt.Errorf("lock products: %w", err)
	}
	type priced struct {
		name  string
		price decimal.Decimal
		stock int
	}
	products := map[string]priced{}
	for rows.Next() {
		var (
			id string
			p  priced
		)
		if err := rows.Scan(&id, &p.name, &p.price, &p.stock); err != nil {
			rows.Close()
			return Order{}, err
		}
		products[id] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Order{}, err
	}

	total := decimal.Zero
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return Order{}, apperr.NotFound(fmt.Sprintf("Product %s not found", it.ProductID))
		}
		if p.stock < it.Quantity {
			return Order{}, apperr.Validation(fmt.Sprintf("Insufficient stock for %s: %d available", p.name, p.stock))
		}
		total = total.Add(p.price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	o := Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Status:        StatusProcessing,
		TotalAmount:   total,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, user_id, status, total_amount, customer_name, customer_email, customer_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, string(o.Status), o.TotalAmount, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range in.Items {
		p := products[it.ProductID]
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1`, it.ProductID, it.Quantity); err != nil {
			return Order{}, fmt.Errorf("decrement stock: %w", err)
		}
		item := OrderItem{OrderID: o.ID, ProductID: it.ProductID, ProductName: p.name, Quantity: it.Quantity, Price: p.price}
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, product_name, quantity, price)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			o.ID, it.ProductID, p.name, it.Quantity, p.price).Scan(&item.ID)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_tracking(order_id, status, description, created_at)
		VALUES ($1, $2, $3, $4)`, o.ID, string(StatusProcessing), placedDescription, o.CreatedAt); err != nil {
		return Order{}, fmt.Errorf("insert tracking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
