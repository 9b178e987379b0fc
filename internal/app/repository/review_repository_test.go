package repository

import (
	"testing"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewReviewRepository(testDB)

	owner := createUser(t, testDB, "owner@campus.edu")
	alice := createUser(t, testDB, "alice@campus.edu")
	bob := createUser(t, testDB, "bob@campus.edu")
	vendor := createVendor(t, testDB, owner, model.VendorStatusApproved)
	listing := createListing(t, testDB, vendor, "Coffee", "2.00", true)

	summary, err := repo.SummaryByListingID(listing.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Count)
	assert.Zero(t, summary.Average)

	comment := "great beans"
	require.NoError(t, repo.Create(&model.Review{ListingID: listing.ID, UserID: alice.ID, VendorID: vendor.ID, Rating: 5, Comment: &comment}))
	require.NoError(t, repo.Create(&model.Review{ListingID: listing.ID, UserID: bob.ID, VendorID: vendor.ID, Rating: 2}))

	err = repo.Create(&model.Review{ListingID: listing.ID, UserID: alice.ID, VendorID: vendor.ID, Rating: 1})
	assert.Error(t, err, "second review by the same user must hit the unique index")

	exists, err := repo.Exists(listing.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(listing.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	reviews, total, err := repo.FindByListingID(listing.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, reviews, 2)
	assert.NotNil(t, reviews[0].User)

	summary, err = repo.SummaryByListingID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.InDelta(t, 3.5, summary.Average, 0.001)
}
