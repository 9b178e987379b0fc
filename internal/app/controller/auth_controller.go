package controller

import (
	"net/http"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/campusmarket/campusmarket-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

// IdentitySecretHeader carries the shared secret of the sign-in proxy.
const IdentitySecretHeader = "X-Identity-Secret"

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

type AuthResponse struct {
	User   *model.User     `json:"user"`
	Tokens *util.TokenPair `json:"tokens"`
}

// SignIn exchanges a proxied identity for a token pair
// POST /api/v1/auth/signin
func (ctrl *AuthController) SignIn(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var identity service.Identity
	if !bindJSON(c, &identity) {
		return
	}

	user, tokens, err := ctrl.authService.SignIn(c.GetHeader(IdentitySecretHeader), identity)
	if err != nil {
		handleServiceError(c, err, "Sign-in", map[string]interface{}{
			"email": identity.Email,
		})
		return
	}

	log.Info("User signed in", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})

	apperrors.RespondWithData(c, http.StatusOK, AuthResponse{User: user, Tokens: tokens})
}

// RefreshToken rotates the token pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(c, err, "Token refresh", nil)
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes the current access token and, when given, the refresh token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	claims, ok := middleware.GetTokenClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req LogoutRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.authService.Logout(c.Request.Context(), claims, req.RefreshToken); err != nil {
		handleServiceError(c, err, "Logout", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return
	}

	log.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"message": "Signed out"})
}

// GetMe returns the current user
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetUserByID(actor.UserID)
	if err != nil {
		handleServiceError(c, err, "Get profile", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"user": user})
}

// UpdateMe edits the display name
// PATCH /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.UpdateProfile(actor.UserID, req.Name)
	if err != nil {
		handleServiceError(c, err, "Update profile", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	log.Info("Profile updated", map[string]interface{}{
		"user_id": user.ID,
	})

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"user": user})
}
