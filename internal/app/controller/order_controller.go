package controller

import (
	"net/http"
	"strings"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// CreateOrder places an order for one listing
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var input service.PlaceOrderInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := ctrl.orderService.PlaceOrder(actor, input)
	if err != nil {
		handleServiceError(c, err, "Place order", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": input.ListingID,
			"quantity":   input.Quantity,
		})
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"user_id":     actor.UserID,
		"order_id":    order.ID,
		"listing_id":  order.ListingID,
		"total_price": order.TotalPrice.String(),
	})

	apperrors.RespondWithData(c, http.StatusCreated, gin.H{"order": order})
}

// GetOrders returns the caller's purchases
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(actor)
	if err != nil {
		handleServiceError(c, err, "Fetch orders", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(actor, id)
	if err != nil {
		handleServiceError(c, err, "Fetch order", map[string]interface{}{
			"user_id":  actor.UserID,
			"order_id": id,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus moves an order along its lifecycle; vendor members only
// PATCH /api/v1/orders/:id
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	next := model.OrderStatus(strings.ToUpper(string(req.Status)))

	order, err := ctrl.orderService.TransitionOrder(actor, id, next)
	if err != nil {
		handleServiceError(c, err, "Update order status", map[string]interface{}{
			"user_id":  actor.UserID,
			"order_id": id,
			"status":   next,
		})
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"user_id":  actor.UserID,
		"order_id": id,
		"status":   order.Status,
	})

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"order": order})
}

// CancelOrder lets the buyer withdraw a pending order
// POST /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.CancelOrder(actor, id)
	if err != nil {
		handleServiceError(c, err, "Cancel order", map[string]interface{}{
			"user_id":  actor.UserID,
			"order_id": id,
		})
		return
	}

	log.Info("Order cancelled by buyer", map[string]interface{}{
		"user_id":  actor.UserID,
		"order_id": id,
	})

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"order": order})
}
