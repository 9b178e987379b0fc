package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	h       *harness
	buyer   *model.User
	seller  *model.User
	vendor  *model.Vendor
	listing *model.Listing
}

func setupOrderControllerTest(t *testing.T) *orderFixture {
	h := setupHarness(t)
	ctrl := NewOrderController(h.orderService)

	orders := h.router.Group("/orders", h.auth.Authenticate())
	orders.POST("", ctrl.CreateOrder)
	orders.GET("", ctrl.GetOrders)
	orders.GET("/:id", ctrl.GetOrderByID)
	orders.PATCH("/:id", ctrl.UpdateOrderStatus)
	orders.POST("/:id/cancel", ctrl.CancelOrder)

	seller := h.user(t, "seller@campus.edu", model.RoleUser)
	vendor := h.vendor(t, seller, model.VendorStatusApproved)
	return &orderFixture{
		h:       h,
		buyer:   h.user(t, "buyer@campus.edu", model.RoleUser),
		seller:  seller,
		vendor:  vendor,
		listing: h.listing(t, vendor, "12.50"),
	}
}

func (f *orderFixture) place(t *testing.T) *model.Order {
	w := f.h.do(t, http.MethodPost, "/orders", map[string]interface{}{
		"listing_id": f.listing.ID,
		"quantity":   2,
	}, f.h.token(t, f.buyer))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Order model.Order `json:"order"`
	}
	decodeData(t, w, &data)
	return &data.Order
}

func TestOrderController_CreateOrder(t *testing.T) {
	f := setupOrderControllerTest(t)

	order := f.place(t)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, f.buyer.ID, order.UserID)
	assert.Equal(t, f.listing.ID, order.ListingID)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("25")), order.TotalPrice.String())
}

func TestOrderController_CreateOrder_Unauthorized(t *testing.T) {
	f := setupOrderControllerTest(t)

	w := f.h.do(t, http.MethodPost, "/orders", map[string]interface{}{"listing_id": f.listing.ID, "quantity": 1}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, f.h.orderCount(t))
}

func TestOrderController_CreateOrder_Rejections(t *testing.T) {
	f := setupOrderControllerTest(t)
	token := f.h.token(t, f.buyer)

	pendingOwner := f.h.user(t, "new@campus.edu", model.RoleUser)
	pendingVendor := f.h.vendor(t, pendingOwner, model.VendorStatusPending)
	hidden := f.h.listing(t, pendingVendor, "5")
	noPrice := f.h.listing(t, f.vendor, "")

	tests := []struct {
		name      string
		listingID uint
		quantity  int
		status    int
		code      string
	}{
		{"unknown listing", 9999, 1, http.StatusNotFound, apperrors.ListingNotFound},
		{"vendor not approved", hidden.ID, 1, http.StatusBadRequest, apperrors.ListingNotPurchasable},
		{"negative quantity", f.listing.ID, -1, http.StatusBadRequest, apperrors.OrderInvalidQuantity},
		{"zero quantity", f.listing.ID, 0, http.StatusBadRequest, apperrors.OrderInvalidQuantity},
		{"contact for price", noPrice.ID, 1, http.StatusBadRequest, apperrors.ListingPriceUnset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.h.do(t, http.MethodPost, "/orders", map[string]interface{}{
				"listing_id": tt.listingID,
				"quantity":   tt.quantity,
			}, token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode(t, w).Error)
		})
	}

	assert.Zero(t, f.h.orderCount(t), "rejected orders leave no rows")
}

func TestOrderController_UpdateOrderStatus(t *testing.T) {
	f := setupOrderControllerTest(t)
	order := f.place(t)
	path := fmt.Sprintf("/orders/%d", order.ID)

	w := f.h.do(t, http.MethodPatch, path, map[string]string{"status": "CONFIRMED"}, f.h.token(t, f.buyer))
	assert.Equal(t, http.StatusForbidden, w.Code, "buyers cannot confirm")

	w = f.h.do(t, http.MethodPatch, path, map[string]string{"status": "confirmed"}, f.h.token(t, f.seller))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Order model.Order `json:"order"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, model.OrderStatusConfirmed, data.Order.Status)

	w = f.h.do(t, http.MethodPatch, path, map[string]string{"status": "PENDING"}, f.h.token(t, f.seller))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.OrderInvalidTransition, decode(t, w).Error)

	w = f.h.do(t, http.MethodPatch, path, map[string]string{"status": "SHIPPED"}, f.h.token(t, f.seller))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderController_CancelOrder(t *testing.T) {
	f := setupOrderControllerTest(t)
	order := f.place(t)
	path := fmt.Sprintf("/orders/%d/cancel", order.ID)

	w := f.h.do(t, http.MethodPost, path, nil, f.h.token(t, f.seller))
	assert.Equal(t, http.StatusForbidden, w.Code, "only the buyer uses the cancel route")

	w = f.h.do(t, http.MethodPost, path, nil, f.h.token(t, f.buyer))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.h.do(t, http.MethodPost, path, nil, f.h.token(t, f.buyer))
	assert.Equal(t, http.StatusBadRequest, w.Code, "already cancelled")
}

func TestOrderController_GetOrders(t *testing.T) {
	f := setupOrderControllerTest(t)
	order := f.place(t)

	w := f.h.do(t, http.MethodGet, "/orders", nil, f.h.token(t, f.buyer))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Orders []model.Order `json:"orders"`
		Count  int           `json:"count"`
	}
	decodeData(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = f.h.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), nil, f.h.token(t, f.seller))
	assert.Equal(t, http.StatusOK, w.Code, "vendor members can read their orders")

	stranger := f.h.user(t, "stranger@campus.edu", model.RoleUser)
	w = f.h.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), nil, f.h.token(t, stranger))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.h.do(t, http.MethodGet, "/orders/abc", nil, f.h.token(t, f.buyer))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
