package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/cocktail-api/internal/dto"
	"github.com/flicky/cocktail-api/internal/middleware"
	"github.com/flicky/cocktail-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	order, err := h.orderService.Checkout(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) History(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, items)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), principal(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) GetInvoice(c *gin.Context) {
	invoiceID, ok := idParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.orderService.GetInvoice(c.Request.Context(), principal(c), invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

func (h *OrderHandler) GetInvoiceByOrder(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}

	invoice, err := h.orderService.GetInvoiceByOrder(c.Request.Context(), principal(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}
