package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := map[string]bool{
		"UNIQUE constraint failed: reviews.listing_id, reviews.user_id":                true,
		`ERROR: duplicate key value violates unique constraint "idx_review_listing_user"`: true,
		"Error 1062: Duplicate entry '1-2' for key 'idx_vendor_member'":                true,
		"Violation of UNIQUE KEY constraint 'idx_wishlist_user_listing'":                 true,
		"connection refused":                                                              false,
	}
	for msg, want := range cases {
		assert.Equal(t, want, IsUniqueViolation(stderrors.New(msg)), msg)
	}

	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, IsUniqueViolation(nil))
}

func TestParseError(t *testing.T) {
	t.Run("not found uses context", func(t *testing.T) {
		info := ParseError(gorm.ErrRecordNotFound, "get listing")
		assert.Equal(t, ResourceNotFound, info.Code)
		assert.Equal(t, "Listing not found", info.Message)
	})

	t.Run("duplicate review", func(t *testing.T) {
		info := ParseError(stderrors.New("UNIQUE constraint failed: reviews.listing_id, reviews.user_id"), "create review")
		assert.Equal(t, ReviewAlreadyExists, info.Code)
	})

	t.Run("duplicate member", func(t *testing.T) {
		info := ParseError(stderrors.New("UNIQUE constraint failed: vendor_members.vendor_id, vendor_members.user_id"), "add member")
		assert.Equal(t, VendorMemberExists, info.Code)
	})

	t.Run("fallback", func(t *testing.T) {
		info := ParseError(stderrors.New("boom"), "update order")
		assert.Equal(t, InternalServerError, info.Code)
		assert.Equal(t, "Failed to update. Please try again later", info.Message)
	})
}

func TestEnvelopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondWithData(c, http.StatusOK, gin.H{"id": 1})

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(1), body["data"].(map[string]interface{})["id"])
	})

	t.Run("failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Conflict(c, ReviewAlreadyExists, "already reviewed")

		assert.Equal(t, http.StatusConflict, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, ReviewAlreadyExists, body.Error)
		assert.Equal(t, "already reviewed", body.Message)
	})
}

func TestParseAndRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound, ResourceNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, http.StatusConflict, ResourceAlreadyExists},
		{"upstream down", stderrors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, InternalExternalAPI},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError, InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			ParseAndRespond(c, tt.err, "get listing")

			assert.Equal(t, tt.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
		})
	}
}

func TestRespondWithValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithValidationError(c, map[string]string{"Title": "required"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ValidationInvalidInput, body.Error)
	assert.Equal(t, "required", body.Fields["Title"])
}
