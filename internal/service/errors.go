package service

import (
	"errors"
	"fmt"

	"github.com/flicky/cocktail-api/internal/model"
)

// Error roots. Handlers map these to status codes; every specific error below
// wraps exactly one of them.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrPaymentDeclined  = errors.New("payment declined")
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrInvoiceNotFound = fmt.Errorf("invoice %w", ErrNotFound)

	ErrInvalidProductID   = fmt.Errorf("%w: invalid product id", ErrInvalidOperation)
	ErrProductUnavailable = fmt.Errorf("%w: product is not available", ErrInvalidOperation)
	ErrInvalidPrice       = fmt.Errorf("%w: price must be between 0 and 1000000", ErrInvalidOperation)
	ErrEmptyCart          = fmt.Errorf("%w: cart empty or not found", ErrInvalidOperation)
	ErrSelfDelete         = fmt.Errorf("%w: cannot delete your own account", ErrInvalidOperation)
	ErrInvalidQuantity    = fmt.Errorf("%w: quantity out of range", ErrInvalidOperation)

	// ErrCheckoutNoUser is a 400, not a 404: checkout reports a missing buyer as a bad request.
	ErrCheckoutNoUser = fmt.Errorf("%w: user not found", ErrInvalidOperation)

	ErrUserAlreadyExists = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUserHasOrders     = fmt.Errorf("%w: user has orders", ErrConflict)
	ErrProductInUse      = fmt.Errorf("%w: product is referenced by an order", ErrConflict)
	ErrCartChanged       = fmt.Errorf("%w: cart changed during checkout", ErrConflict)

	ErrOrderAccessDenied = fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	ErrAccountInactive   = fmt.Errorf("%w: account is inactive", ErrForbidden)
)

// ErrInvalidCredentials is reported as 401 and deliberately does not say which
// of email or password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Principal is the authenticated caller as resolved by the auth middleware.
type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }
