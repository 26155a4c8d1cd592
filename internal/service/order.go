package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flicky/cocktail-api/internal/logging"
	"github.com/flicky/cocktail-api/internal/model"
	"github.com/flicky/cocktail-api/internal/repository"
)

// OrderPublisher announces committed orders to downstream consumers.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *model.Order, invoice *model.Invoice) error
}

type OrderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	userRepo  repository.UserRepository
	payments  PaymentAuthorizer
	publisher OrderPublisher
	checkouts *prometheus.CounterVec
}

// NewOrderService wires checkout and order retrieval. payments defaults to
// SimulatedPayments; publisher and checkouts may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	payments PaymentAuthorizer,
	publisher OrderPublisher,
	checkouts *prometheus.CounterVec,
) *OrderService {
	if payments == nil {
		payments = SimulatedPayments{}
	}
	return &OrderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		userRepo:  userRepo,
		payments:  payments,
		publisher: publisher,
		checkouts: checkouts,
	}
}

// Checkout turns the user's cart into an order and an invoice and empties the
// cart. Nothing is written unless the cart is non-empty, the user exists and
// the payment is authorized; the writes themselves are a single transaction.
func (s *OrderService) Checkout(ctx context.Context, userID int64) (*model.Order, error) {
	order, err := s.checkout(ctx, userID)
	s.recordCheckout(err)
	return order, err
}

func (s *OrderService) checkout(ctx context.Context, userID int64) (*model.Order, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrCheckoutNoUser
	}

	total := cart.Total()

	payment, err := s.payments.Authorize(ctx, PaymentRequest{UserID: userID, Amount: total})
	if err != nil {
		if errors.Is(err, ErrPaymentDeclined) {
			return nil, err
		}
		return nil, fmt.Errorf("authorize payment: %w", err)
	}

	// An authorizer that does not settle immediately leaves the order pending,
	// matching the column default.
	if payment.Status == "" {
		payment.Status = model.PaymentStatusPending
	}

	order := &model.Order{
		UserID:        userID,
		TotalAmount:   total,
		PaymentStatus: payment.Status,
		Items:         make([]model.OrderItem, 0, len(cart.Items)),
	}
	for _, line := range cart.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Product:   line.Product,
		})
	}
	invoice := &model.Invoice{CustomerName: user.Name, TotalAmount: total}

	if err := s.orderRepo.PlaceOrder(ctx, cart, order, invoice); err != nil {
		if errors.Is(err, repository.ErrCartChanged) {
			return nil, ErrCartChanged
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	logging.FromContext(ctx, slog.Default()).Info("order placed",
		"order_id", order.ID,
		"invoice_id", invoice.ID,
		"total", total.StringFixed(2),
		"payment_status", order.PaymentStatus,
		"payment_reference", payment.Reference,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, order, invoice); err != nil {
			logging.FromContext(ctx, slog.Default()).Warn("publish order placed failed",
				"order_id", order.ID, "error", err)
		}
	}

	return order, nil
}

func (s *OrderService) recordCheckout(err error) {
	if s.checkouts == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyCart):
		outcome = "empty_cart"
	case errors.Is(err, ErrPaymentDeclined):
		outcome = "declined"
	case errors.Is(err, ErrCartChanged):
		outcome = "conflict"
	default:
		outcome = "error"
	}
	s.checkouts.WithLabelValues(outcome).Inc()
}

func (s *OrderService) GetOrder(ctx context.Context, caller Principal, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !canRead(caller, order.UserID) {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetInvoice returns the invoice with its order and order lines.
func (s *OrderService) GetInvoice(ctx context.Context, caller Principal, invoiceID int64) (*model.Invoice, error) {
	invoice, err := s.orderRepo.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return checkInvoice(caller, invoice)
}

// GetInvoiceByOrder returns the invoice of an order with the order header only.
func (s *OrderService) GetInvoiceByOrder(ctx context.Context, caller Principal, orderID int64) (*model.Invoice, error) {
	invoice, err := s.orderRepo.GetInvoiceByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return checkInvoice(caller, invoice)
}

func checkInvoice(caller Principal, invoice *model.Invoice) (*model.Invoice, error) {
	if invoice == nil || invoice.Order == nil {
		return nil, ErrInvoiceNotFound
	}
	if !canRead(caller, invoice.Order.UserID) {
		return nil, ErrOrderAccessDenied
	}
	return invoice, nil
}

// canRead lets owners read their own orders and admins read any.
func canRead(caller Principal, ownerID int64) bool {
	return caller.IsAdmin() || caller.UserID == ownerID
}
