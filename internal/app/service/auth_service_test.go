package service

import (
	"context"
	"testing"
	"time"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProxySecret = "proxy-secret"
	testJWTSecret   = "jwt-secret"
)

func setupAuthServiceTest(t *testing.T) (AuthService, *testEnv) {
	e := setupEnv(t)
	policy := util.EmailPolicy{
		AllowedDomain: "campus.edu",
		AllowedEmails: []string{"guest@gmail.com"},
		AdminEmails:   []string{"dean@gmail.com"},
	}
	svc := NewAuthService(e.userRepo, policy, testProxySecret, testJWTSecret, 15*time.Minute, 24*time.Hour)
	return svc, e
}

func TestAuthService_SignIn(t *testing.T) {
	svc, e := setupAuthServiceTest(t)

	t.Run("creates user on first sign-in", func(t *testing.T) {
		user, tokens, err := svc.SignIn(testProxySecret, Identity{
			ProviderID: "google-1",
			Email:      " Student@Campus.EDU ",
			Name:       "Sam Student",
			ImageURL:   "https://img.example.com/sam.png",
		})
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "student@campus.edu", user.Email)
		assert.Equal(t, model.RoleUser, user.Role)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, int64(900), tokens.ExpiresIn)

		claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, util.AccessToken, claims.TokenType)
	})

	t.Run("second sign-in reuses the user and keeps an edited name", func(t *testing.T) {
		existing, err := e.userRepo.FindByEmail("student@campus.edu")
		require.NoError(t, err)
		_, err = svc.UpdateProfile(existing.ID, "Samantha")
		require.NoError(t, err)

		user, _, err := svc.SignIn(testProxySecret, Identity{ProviderID: "google-1", Email: "student@campus.edu", Name: "Sam Student"})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)
		assert.Equal(t, "Samantha", user.Name)
	})

	t.Run("domain restriction", func(t *testing.T) {
		_, _, err := svc.SignIn(testProxySecret, Identity{ProviderID: "g-2", Email: "someone@gmail.com"})
		assert.ErrorIs(t, err, ErrDomainNotAllowed)

		user, _, err := svc.SignIn(testProxySecret, Identity{ProviderID: "g-3", Email: "guest@gmail.com"})
		require.NoError(t, err)
		assert.Equal(t, model.RoleUser, user.Role)
		assert.Equal(t, "guest", user.Name, "name falls back to the local part")
	})

	t.Run("admin emails are promoted", func(t *testing.T) {
		user, _, err := svc.SignIn(testProxySecret, Identity{ProviderID: "g-4", Email: "dean@gmail.com", Name: "Dean"})
		require.NoError(t, err)
		assert.True(t, user.IsAdmin())
	})

	t.Run("untrusted proxy", func(t *testing.T) {
		_, _, err := svc.SignIn("wrong", Identity{ProviderID: "g-5", Email: "x@campus.edu"})
		assert.ErrorIs(t, err, ErrIdentityUntrusted)
	})

	t.Run("incomplete identity", func(t *testing.T) {
		_, _, err := svc.SignIn(testProxySecret, Identity{Email: "x@campus.edu"})
		assert.ErrorIs(t, err, ErrInvalidIdentity)
	})
}

func TestAuthService_SignInDisabledWithoutSecret(t *testing.T) {
	e := setupEnv(t)
	svc := NewAuthService(e.userRepo, util.EmailPolicy{}, "", testJWTSecret, time.Minute, time.Hour)

	_, _, err := svc.SignIn("", Identity{ProviderID: "g", Email: "a@campus.edu"})
	assert.ErrorIs(t, err, ErrIdentityUntrusted)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, e := setupAuthServiceTest(t)
	ctx := context.Background()

	user, tokens, err := svc.SignIn(testProxySecret, Identity{ProviderID: "g-1", Email: "a@campus.edu"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "access tokens cannot refresh")

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, e.userRepo.UpdateRole(user.ID, model.RoleAdmin))
	refreshed, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)

	claims, err := util.ValidateToken(refreshed.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, string(model.RoleAdmin), claims.Role, "role is re-read on refresh")

	accessClaims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.NoError(t, svc.Logout(ctx, accessClaims, refreshed.RefreshToken))
}

func TestAuthService_Profile(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	_, err := svc.GetUserByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, _, err := svc.SignIn(testProxySecret, Identity{ProviderID: "g-1", Email: "a@campus.edu", Name: "A"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(user.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.UpdateProfile(user.ID, "Alex")
	require.NoError(t, err)
	assert.Equal(t, "Alex", updated.Name)

	fetched, err := svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex", fetched.Name)
}
