package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/cocktail-api/internal/model"
)

type CartRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Cart, error)
	AddItem(ctx context.Context, userID int64, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (bool, error)
	DeleteItem(ctx context.Context, userID, itemID int64) (bool, error)
	Clear(ctx context.Context, userID int64) error
}

type pgCartRepo struct{ db DB }

func NewCartRepository(db DB) CartRepository {
	return &pgCartRepo{db: db}
}

// upsertCartQuery relies on UNIQUE (user_id) so concurrent first adds for the
// same user converge on one cart row.
const upsertCartQuery = `INSERT INTO carts (user_id, created_at) VALUES ($1, NOW())
	ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING id`

func (r *pgCartRepo) GetByUserID(ctx context.Context, userID int64) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.unit_price, p.name, p.image_url
		 FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1 ORDER BY ci.id`, cart.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		product := &model.Product{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&product.Name, &product.ImageURL); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		product.ID = item.ProductID
		item.Product = product
		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}

// AddItem creates the user's cart if needed and merges the line: an existing
// line for the same product has its quantity increased and keeps its captured price.
func (r *pgCartRepo) AddItem(ctx context.Context, userID int64, item *model.CartItem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, upsertCartQuery, userID).Scan(&item.CartID); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING id, quantity`,
		item.CartID, item.ProductID, item.Quantity, item.UnitPrice,
	).Scan(&item.ID, &item.Quantity)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *pgCartRepo) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $1 AND cart_id = $2`,
		itemID, cartID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("update cart item: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, userID, itemID int64) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM cart_items ci USING carts c
		 WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2`,
		itemID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgCartRepo) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM cart_items ci USING carts c WHERE ci.cart_id = c.id AND c.user_id = $1`, userID,
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
