package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/cocktail-api/internal/config"
	"github.com/flicky/cocktail-api/internal/dto"
	"github.com/flicky/cocktail-api/internal/metrics"
	"github.com/flicky/cocktail-api/internal/middleware"
	"github.com/flicky/cocktail-api/internal/model"
	"github.com/flicky/cocktail-api/internal/repository"
	"github.com/flicky/cocktail-api/internal/service"
)

var testJWT = middleware.AuthConfig{Secret: "handler-test-secret", Issuer: "cocktail-api", Audience: "cocktail-web"}

type fakeUsers struct {
	repository.UserRepository
	byID map[int64]*model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	return f.byID[id], nil
}

type fakeProducts struct {
	repository.ProductRepository
	byID map[int64]*model.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*model.Product, error) {
	return f.byID[id], nil
}

func (f *fakeProducts) ListAll(context.Context) ([]model.Product, error) {
	var all []model.Product
	for id := int64(1); id <= int64(len(f.byID)); id++ {
		all = append(all, *f.byID[id])
	}
	return all, nil
}

type fakeCarts struct {
	carts  map[int64]*model.Cart
	nextID int64
}

func (f *fakeCarts) GetByUserID(_ context.Context, userID int64) (*model.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *cart
	cp.Items = append([]model.CartItem{}, cart.Items...)
	return &cp, nil
}

func (f *fakeCarts) AddItem(_ context.Context, userID int64, item *model.CartItem) error {
	cart, ok := f.carts[userID]
	if !ok {
		f.nextID++
		cart = &model.Cart{ID: f.nextID, UserID: userID, CreatedAt: time.Now()}
		f.carts[userID] = cart
	}
	f.nextID++
	item.ID = f.nextID
	item.CartID = cart.ID
	cart.Items = append(cart.Items, *item)
	return nil
}

func (f *fakeCarts) UpdateItemQuantity(context.Context, int64, int64, int) (bool, error) {
	return false, nil
}

func (f *fakeCarts) DeleteItem(_ context.Context, userID, itemID int64) (bool, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return false, nil
	}
	for i, item := range cart.Items {
		if item.ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCarts) Clear(_ context.Context, userID int64) error {
	if cart, ok := f.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

type fakeOrders struct {
	repository.OrderRepository
	carts    *fakeCarts
	orders   map[int64]*model.Order
	invoices map[int64]*model.Invoice
}

func (f *fakeOrders) PlaceOrder(_ context.Context, cart *model.Cart, order *model.Order, invoice *model.Invoice) error {
	order.ID = int64(len(f.orders) + 1)
	order.CreatedAt = time.Now()
	invoice.ID = order.ID + 100
	invoice.OrderID = order.ID
	invoice.Order = order
	f.orders[order.ID] = order
	f.invoices[order.ID] = invoice
	f.carts.carts[cart.UserID].Items = nil
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*model.Order, error) {
	return f.orders[id], nil
}

func (f *fakeOrders) ListByUserID(_ context.Context, userID int64) ([]model.Order, error) {
	orders := []model.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (f *fakeOrders) GetInvoiceByOrderID(_ context.Context, orderID int64) (*model.Invoice, error) {
	return f.invoices[orderID], nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeRedisPinger struct{ err error }

func (p fakeRedisPinger) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", p.err)
}

type fakeBroker struct{ closed bool }

func (b fakeBroker) IsClosed() bool { return b.closed }

type routerFixture struct {
	engine   *gin.Engine
	products *fakeProducts
	orders   *fakeOrders
}

const (
	adminID = int64(1)
	guestID = int64(2)
	otherID = int64(3)
)

func newRouterFixture(t *testing.T, db Pinger, broker BrokerConn) *routerFixture {
	t.Helper()
	users := &fakeUsers{byID: map[int64]*model.User{
		adminID: {ID: adminID, Name: "Admin", Role: model.RoleAdmin, Active: true},
		guestID: {ID: guestID, Name: "Ana", Role: model.RoleGuest, Active: true},
		otherID: {ID: otherID, Name: "Luis", Role: model.RoleGuest, Active: true},
	}}
	products := &fakeProducts{byID: map[int64]*model.Product{
		1: {ID: 1, Name: "Mojito", Price: decimal.NewFromInt(10000), Available: true},
		2: {ID: 2, Name: "Negroni", Price: decimal.NewFromInt(5000), Available: true},
	}}
	carts := &fakeCarts{carts: map[int64]*model.Cart{}}
	orders := &fakeOrders{carts: carts, orders: map[int64]*model.Order{}, invoices: map[int64]*model.Invoice{}}

	m := metrics.New()
	productSvc := service.NewProductService(products, nil, time.Minute)
	engine := NewRouter(Router{
		Auth:    NewAuthHandler(service.NewAuthService(users, service.TokenConfig{Secret: testJWT.Secret, Expiry: time.Hour})),
		User:    NewUserHandler(service.NewUserService(users)),
		Product: NewProductHandler(productSvc),
		Cart:    NewCartHandler(service.NewCartService(carts, products)),
		Order:   NewOrderHandler(service.NewOrderService(orders, carts, users, nil, nil, m.Checkouts)),
		Health:  NewHealthHandler(db, fakeRedisPinger{}, broker),
		JWT:     testJWT,
		CORS:    config.CORSConfig{AllowOrigins: []string{"http://localhost:5173"}},
		Metrics: m,
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &routerFixture{engine: engine, products: products, orders: orders}
}

func tokenFor(t *testing.T, userID int64, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": strconv.FormatInt(userID, 10),
		"role":   role,
		"iss":    testJWT.Issuer,
		"aud":    testJWT.Audience,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWT.Secret))
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCartRoutes(t *testing.T) {
	f := newRouterFixture(t, fakePinger{}, nil)
	guest := tokenFor(t, guestID, model.RoleGuest)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/cart", "", nil).Code)

	rec := f.do(t, http.MethodGet, "/api/cart", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)

	rec = f.do(t, http.MethodPost, "/api/cart/add", guest, dto.AddCartItemRequest{ProductID: 0, Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/cart/add", guest, dto.AddCartItemRequest{ProductID: 99, Quantity: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/cart/add", guest, dto.AddCartItemRequest{ProductID: 1, Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[dto.CartResponse](t, rec)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(20000)))

	rec = f.do(t, http.MethodDelete, "/api/cart/item/999", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false}`, rec.Body.String())

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/item/%d", cart.Items[0].ID), guest, nil)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/api/cart/clear", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodDelete, "/api/cart/item/abc", guest, nil).Code)
}

func TestCheckoutAndOrderRoutes(t *testing.T) {
	f := newRouterFixture(t, fakePinger{}, nil)
	guest := tokenFor(t, guestID, model.RoleGuest)
	other := tokenFor(t, otherID, model.RoleGuest)
	admin := tokenFor(t, adminID, model.RoleAdmin)

	rec := f.do(t, http.MethodPost, "/api/order/checkout", guest, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	f.do(t, http.MethodPost, "/api/cart/add", guest, dto.AddCartItemRequest{ProductID: 1, Quantity: 2})
	f.do(t, http.MethodPost, "/api/cart/add", guest, dto.AddCartItemRequest{ProductID: 2, Quantity: 1})

	rec = f.do(t, http.MethodPost, "/api/order/checkout", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[dto.OrderResponse](t, rec)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	assert.Len(t, order.Items, 2)

	rec = f.do(t, http.MethodGet, "/api/cart", guest, nil)
	assert.Empty(t, decode[dto.CartResponse](t, rec).Items)

	path := fmt.Sprintf("/api/order/%d", order.ID)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, guest, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/order/404", guest, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/order/abc", guest, nil).Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/order/invoice/order/%d", order.ID), guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	invoice := decode[dto.InvoiceResponse](t, rec)
	assert.Equal(t, order.ID, invoice.OrderID)
	assert.Equal(t, "Ana", invoice.CustomerName)

	rec = f.do(t, http.MethodGet, "/api/order/history", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dto.OrderResponse](t, rec), 1)

	rec = f.do(t, http.MethodGet, "/api/order/history", other, nil)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestProductExport_AdminOnly(t *testing.T) {
	f := newRouterFixture(t, fakePinger{}, nil)

	rec := f.do(t, http.MethodGet, "/api/product/export", tokenFor(t, guestID, model.RoleGuest), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/product/export", tokenFor(t, adminID, model.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = f.do(t, http.MethodGet, "/api/product/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mojito", decode[dto.ProductResponse](t, rec).Name)
}

func TestHealthRoutes(t *testing.T) {
	f := newRouterFixture(t, fakePinger{}, fakeBroker{})
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "", nil).Code)

	rec := f.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rabbitmq":"connected"`)

	rec = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cocktail_http_requests_total")

	down := newRouterFixture(t, fakePinger{err: errors.New("connection refused")}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/readyz", "", nil).Code)

	closed := newRouterFixture(t, fakePinger{}, fakeBroker{closed: true})
	assert.Equal(t, http.StatusServiceUnavailable, closed.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

func TestCartRoutes_RejectOutOfRangeInput(t *testing.T) {
	f := newRouterFixture(t, fakePinger{}, nil)
	guest := tokenFor(t, guestID, model.RoleGuest)

	rec := f.do(t, http.MethodPost, "/api/cart/add", guest, map[string]any{"productId": 1, "quantity": 3000000000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/cart", guest, nil)
	assert.Empty(t, decode[dto.CartResponse](t, rec).Items)

	rec = f.do(t, http.MethodPost, "/api/cart/add", guest, dto.AddCartItemRequest{ProductID: 1, Quantity: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/cart/update", guest, map[string]any{"cartItemId": 0, "quantity": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	itemID := decode[dto.CartResponse](t, f.do(t, http.MethodGet, "/api/cart", guest, nil)).Items[0].ID
	rec = f.do(t, http.MethodPut, "/api/cart/update", guest, map[string]any{"cartItemId": itemID, "quantity": 3000000000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductCreate_RequiresPrice(t *testing.T) {
	f := newRouterFixture(t, fakePinger{}, nil)
	admin := tokenFor(t, adminID, model.RoleAdmin)

	rec := f.do(t, http.MethodPost, "/api/product", admin, map[string]any{"name": "Paloma"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, f.products.byID, 2)
}
