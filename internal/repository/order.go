package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/cocktail-api/internal/model"
)

// ErrCartChanged means the cart lines moved between the checkout read and the
// locked re-read inside the transaction.
var ErrCartChanged = errors.New("cart changed during checkout")

type OrderRepository interface {
	PlaceOrder(ctx context.Context, cart *model.Cart, order *model.Order, invoice *model.Invoice) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	GetInvoiceByID(ctx context.Context, id int64) (*model.Invoice, error)
	GetInvoiceByOrderID(ctx context.Context, orderID int64) (*model.Invoice, error)
	MarkInvoiceDelivered(ctx context.Context, invoiceID int64) error
}

type pgOrderRepo struct{ db DB }

func NewOrderRepository(db DB) OrderRepository {
	return &pgOrderRepo{db: db}
}

// PlaceOrder writes the order, its lines and its invoice, then empties the
// cart, all in one transaction. The cart row is locked first so concurrent
// cart mutations for the same user wait for the checkout to finish.
func (r *pgOrderRepo) PlaceOrder(ctx context.Context, cart *model.Cart, order *model.Order, invoice *model.Invoice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM carts WHERE id = $1 AND user_id = $2 FOR UPDATE`, cart.ID, cart.UserID,
	).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartChanged
		}
		return fmt.Errorf("lock cart: %w", err)
	}

	if err := verifyCartLines(ctx, tx, cart); err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, created_at, total_amount, payment_status)
		 VALUES ($1, NOW(), $2, $3) RETURNING id, created_at`,
		order.UserID, order.TotalAmount, order.PaymentStatus,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price, created_at)
			 VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`,
			item.OrderID, item.ProductID, item.Quantity, item.UnitPrice,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	invoice.OrderID = order.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO invoices (order_id, created_at, customer_name, total_amount)
		 VALUES ($1, NOW(), $2, $3) RETURNING id, created_at`,
		invoice.OrderID, invoice.CustomerName, invoice.TotalAmount,
	).Scan(&invoice.ID, &invoice.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func verifyCartLines(ctx context.Context, tx pgx.Tx, cart *model.Cart) error {
	rows, err := tx.Query(ctx,
		`SELECT id, product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY id`, cart.ID,
	)
	if err != nil {
		return fmt.Errorf("read cart lines: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var id, productID int64
		var quantity int
		if err := rows.Scan(&id, &productID, &quantity); err != nil {
			return fmt.Errorf("scan cart line: %w", err)
		}
		if n >= len(cart.Items) {
			return ErrCartChanged
		}
		want := cart.Items[n]
		if want.ID != id || want.ProductID != productID || want.Quantity != quantity {
			return ErrCartChanged
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read cart lines: %w", err)
	}
	if n != len(cart.Items) {
		return ErrCartChanged
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	order := &model.Order{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, total_amount, payment_status FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.CreatedAt, &order.TotalAmount, &order.PaymentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	byID := map[int64]*model.Order{order.ID: order}
	if err := r.loadItems(ctx, []int64{order.ID}, byID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, created_at, total_amount, payment_status FROM orders WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		o.UserID = userID
		if err := rows.Scan(&o.ID, &o.CreatedAt, &o.TotalAmount, &o.PaymentStatus); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*model.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}
	if err := r.loadItems(ctx, ids, byID); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *pgOrderRepo) loadItems(ctx context.Context, orderIDs []int64, byID map[int64]*model.Order) error {
	rows, err := r.db.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.created_at, p.name, p.image_url
		 FROM order_items oi JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1) ORDER BY oi.id`, orderIDs,
	)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for _, o := range byID {
		o.Items = []model.OrderItem{}
	}
	for rows.Next() {
		var item model.OrderItem
		product := &model.Product{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.CreatedAt, &product.Name, &product.ImageURL); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		product.ID = item.ProductID
		item.Product = product
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (r *pgOrderRepo) GetInvoiceByID(ctx context.Context, id int64) (*model.Invoice, error) {
	inv := &model.Invoice{}
	err := r.db.QueryRow(ctx,
		`SELECT id, order_id, created_at, customer_name, total_amount, delivered_at FROM invoices WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.OrderID, &inv.CreatedAt, &inv.CustomerName, &inv.TotalAmount, &inv.DeliveredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	order, err := r.GetByID(ctx, inv.OrderID)
	if err != nil {
		return nil, err
	}
	inv.Order = order
	return inv, nil
}

// GetInvoiceByOrderID returns the invoice with its order header (no lines).
func (r *pgOrderRepo) GetInvoiceByOrderID(ctx context.Context, orderID int64) (*model.Invoice, error) {
	inv := &model.Invoice{}
	order := &model.Order{}
	err := r.db.QueryRow(ctx,
		`SELECT i.id, i.order_id, i.created_at, i.customer_name, i.total_amount, i.delivered_at,
		        o.id, o.user_id, o.created_at, o.total_amount, o.payment_status
		 FROM invoices i JOIN orders o ON o.id = i.order_id
		 WHERE i.order_id = $1`, orderID,
	).Scan(&inv.ID, &inv.OrderID, &inv.CreatedAt, &inv.CustomerName, &inv.TotalAmount, &inv.DeliveredAt,
		&order.ID, &order.UserID, &order.CreatedAt, &order.TotalAmount, &order.PaymentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice by order: %w", err)
	}
	inv.Order = order
	return inv, nil
}

func (r *pgOrderRepo) MarkInvoiceDelivered(ctx context.Context, invoiceID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE invoices SET delivered_at = NOW() WHERE id = $1 AND delivered_at IS NULL`, invoiceID,
	)
	if err != nil {
		return fmt.Errorf("mark invoice delivered: %w", err)
	}
	return nil
}
