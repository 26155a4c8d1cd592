package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"imageUrl,omitempty"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// --- User administration ---

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=Admin Invitado"`
	Active   *bool  `json:"active"`
}

type UpdateUserRequest struct {
	Name   string `json:"name" binding:"required,max=100"`
	Email  string `json:"email" binding:"required,email,max=100"`
	Role   string `json:"role" binding:"omitempty,oneof=Admin Invitado"`
	Active bool   `json:"active"`
}

// --- Product ---

type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required,max=100"`
	Description string           `json:"description" binding:"max=500"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	ImageURL    string           `json:"imageUrl"`
	Available   *bool            `json:"available"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=100"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"imageUrl"`
	Available   *bool            `json:"available"`
}

type ListProductsRequest struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	Limit     int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search    string `form:"search"`
	Sort      string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order     string `form:"order,default=desc" binding:"oneof=asc desc"`
	Available *bool  `form:"available"`
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type UpdateCartItemRequest struct {
	CartItemID int64 `json:"cartItemId"`
	Quantity   int   `json:"quantity"`
}

type CartResponse struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"userId"`
	CreatedAt *time.Time         `json:"createdAt,omitempty"`
	Items     []CartItemResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
}

type CartItemResponse struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// --- Order ---

type ProductSnapshot struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type OrderResponse struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"userId"`
	CreatedAt     time.Time           `json:"createdAt"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	PaymentStatus string              `json:"paymentStatus"`
	Items         []OrderItemResponse `json:"items"`
}

type OrderItemResponse struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

type InvoiceResponse struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"orderId"`
	CreatedAt    time.Time       `json:"createdAt"`
	CustomerName string          `json:"customerName"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	DeliveredAt  *time.Time      `json:"deliveredAt,omitempty"`
	Order        *OrderResponse  `json:"order,omitempty"`
}
