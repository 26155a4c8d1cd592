package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin = "Admin"
	RoleGuest = "Invitado"

	RoleIDAdmin int16 = 1
	RoleIDGuest int16 = 2
)

const (
	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "Paid"
)

type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	RoleID    int16
	Role      string
	Active    bool
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleIDFor maps a role name to its seeded id. Unknown names fall back to the guest role.
func RoleIDFor(name string) int16 {
	if name == RoleAdmin {
		return RoleIDAdmin
	}
	return RoleIDGuest
}

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cart struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
	Items     []CartItem
}

// Total is the sum of quantity × captured unit price over the cart lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Product   *Product
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID            int64
	UserID        int64
	CreatedAt     time.Time
	TotalAmount   decimal.Decimal
	PaymentStatus string
	Items         []OrderItem
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	Product   *Product
}

type Invoice struct {
	ID           int64
	OrderID      int64
	CreatedAt    time.Time
	CustomerName string
	TotalAmount  decimal.Decimal
	DeliveredAt  *time.Time
	Order        *Order
}
