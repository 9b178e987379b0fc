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

func setupListingControllerTest(t *testing.T) *harness {
	h := setupHarness(t)
	ctrl := NewListingController(h.listingService)

	l := h.router.Group("/listings")
	l.GET("", ctrl.GetListings)
	l.GET("/:id", h.auth.OptionalAuthenticate(), ctrl.GetListing)
	l.POST("", h.auth.Authenticate(), ctrl.CreateListing)
	l.PATCH("/:id", h.auth.Authenticate(), ctrl.UpdateListing)
	l.DELETE("/:id", h.auth.Authenticate(), ctrl.DeleteListing)
	return h
}

func TestListingController_CreateListing(t *testing.T) {
	h := setupListingControllerTest(t)
	owner := h.user(t, "owner@campus.edu", model.RoleUser)
	stranger := h.user(t, "stranger@campus.edu", model.RoleUser)
	approved := h.vendor(t, owner, model.VendorStatusApproved)
	pending := h.vendor(t, owner, model.VendorStatusPending)

	body := func(vendorID uint) map[string]interface{} {
		return map[string]interface{}{
			"business_id": vendorID,
			"title":       "Desk lamp",
			"type":        "product",
			"price":       "8.99",
			"images":      []string{"https://cdn.example.com/listings/1/lamp.png"},
		}
	}

	w := h.do(t, http.MethodPost, "/listings", body(approved.ID), h.token(t, stranger))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodPost, "/listings", body(pending.ID), h.token(t, owner))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.VendorNotApproved, decode(t, w).Error)

	w = h.do(t, http.MethodPost, "/listings", body(9999), h.token(t, owner))
	assert.Equal(t, http.StatusNotFound, w.Code)

	invalid := body(approved.ID)
	invalid["price"] = "-1"
	w = h.do(t, http.MethodPost, "/listings", invalid, h.token(t, owner))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/listings", body(approved.ID), h.token(t, owner))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Listing model.Listing `json:"listing"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, model.ListingTypeProduct, data.Listing.Type)
	require.NotNil(t, data.Listing.Price)
	assert.True(t, data.Listing.Price.Equal(decimal.RequireFromString("8.99")))
}

func TestListingController_Visibility(t *testing.T) {
	h := setupListingControllerTest(t)
	owner := h.user(t, "owner@campus.edu", model.RoleUser)
	approved := h.vendor(t, owner, model.VendorStatusApproved)
	pending := h.vendor(t, owner, model.VendorStatusPending)
	visible := h.listing(t, approved, "10")
	hidden := h.listing(t, pending, "10")

	w := h.do(t, http.MethodGet, "/listings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Listings []model.Listing `json:"listings"`
		Total    int64           `json:"total"`
	}
	decodeData(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Listings, 1)
	assert.Equal(t, visible.ID, list.Listings[0].ID)

	w = h.do(t, http.MethodGet, fmt.Sprintf("/listings/%d", hidden.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, fmt.Sprintf("/listings/%d", hidden.ID), nil, h.token(t, owner))
	assert.Equal(t, http.StatusOK, w.Code, "members see their own hidden listings")

	w = h.do(t, http.MethodGet, "/listings?type=vehicle", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/listings?business_id=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingController_UpdateAndDelete(t *testing.T) {
	h := setupListingControllerTest(t)
	owner := h.user(t, "owner@campus.edu", model.RoleUser)
	stranger := h.user(t, "stranger@campus.edu", model.RoleUser)
	v := h.vendor(t, owner, model.VendorStatusApproved)
	listing := h.listing(t, v, "10")
	path := fmt.Sprintf("/listings/%d", listing.ID)

	w := h.do(t, http.MethodPatch, path, map[string]interface{}{"clear_price": true}, h.token(t, stranger))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodPatch, path, map[string]interface{}{"clear_price": true, "is_available": false}, h.token(t, owner))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Listing model.Listing `json:"listing"`
	}
	decodeData(t, w, &data)
	assert.Nil(t, data.Listing.Price)
	assert.False(t, data.Listing.IsAvailable)

	w = h.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "unavailable listings leave the catalogue")

	w = h.do(t, http.MethodDelete, path, nil, h.token(t, stranger))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodDelete, path, nil, h.token(t, owner))
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, path, nil, h.token(t, owner))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
