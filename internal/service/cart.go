package service

import (
	"context"
	"fmt"
	"math"

	"github.com/flicky/cocktail-api/internal/model"
	"github.com/flicky/cocktail-api/internal/repository"
)

// MaxItemQuantity is the largest quantity a cart line can hold.
const MaxItemQuantity = math.MaxInt32

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart returns the user's cart, or an unsaved empty cart when the user has
// none yet. It never writes.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
	}
	return cart, nil
}

// AddItem puts quantity units of the product in the cart at the product's
// current price. A quantity below 1 is treated as 1.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*model.Cart, error) {
	if productID <= 0 {
		return nil, ErrInvalidProductID
	}
	if quantity <= 0 {
		quantity = 1
	}
	if quantity > MaxItemQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.Available {
		return nil, ErrProductUnavailable
	}

	item := &model.CartItem{ProductID: productID, Quantity: quantity, UnitPrice: product.Price}
	if err := s.cartRepo.AddItem(ctx, userID, item); err != nil {
		if repository.IsNumericOutOfRange(err) {
			return nil, ErrInvalidQuantity
		}
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity overwrites a line's quantity without re-pricing it. A
// quantity of zero or less removes the line. Unknown items are ignored.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*model.Cart, error) {
	if quantity > MaxItemQuantity {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.ID == 0 {
		return cart, nil
	}

	if quantity <= 0 {
		if _, err := s.cartRepo.DeleteItem(ctx, userID, itemID); err != nil {
			return nil, fmt.Errorf("remove cart item: %w", err)
		}
	} else {
		if _, err := s.cartRepo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
			return nil, fmt.Errorf("update cart item: %w", err)
		}
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes one line from the caller's own cart and reports whether
// anything was deleted.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (bool, error) {
	deleted, err := s.cartRepo.DeleteItem(ctx, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("remove cart item: %w", err)
	}
	return deleted, nil
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
