package handler

import (
	"github.com/flicky/cocktail-api/internal/dto"
	"github.com/flicky/cocktail-api/internal/model"
)

func toSnapshot(p *model.Product) *dto.ProductSnapshot {
	if p == nil {
		return nil
	}
	return &dto.ProductSnapshot{ID: p.ID, Name: p.Name, ImageURL: p.ImageURL}
}

func toCartResponse(cart *model.Cart) dto.CartResponse {
	resp := dto.CartResponse{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]dto.CartItemResponse, 0, len(cart.Items)),
		Total:  cart.Total(),
	}
	if !cart.CreatedAt.IsZero() {
		created := cart.CreatedAt
		resp.CreatedAt = &created
	}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, dto.CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Product:   toSnapshot(item.Product),
		})
	}
	return resp
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            order.ID,
		UserID:        order.UserID,
		CreatedAt:     order.CreatedAt,
		TotalAmount:   order.TotalAmount,
		PaymentStatus: order.PaymentStatus,
		Items:         make([]dto.OrderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Product:   toSnapshot(item.Product),
		})
	}
	return resp
}

func toInvoiceResponse(invoice *model.Invoice) dto.InvoiceResponse {
	resp := dto.InvoiceResponse{
		ID:           invoice.ID,
		OrderID:      invoice.OrderID,
		CreatedAt:    invoice.CreatedAt,
		CustomerName: invoice.CustomerName,
		TotalAmount:  invoice.TotalAmount,
		DeliveredAt:  invoice.DeliveredAt,
	}
	if invoice.Order != nil {
		order := toOrderResponse(invoice.Order)
		resp.Order = &order
	}
	return resp
}
