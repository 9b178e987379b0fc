package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/campusmarket/campusmarket-backend/pkg/redis"
	"github.com/campusmarket/campusmarket-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrIdentityUntrusted   = errors.New("identity assertion is not trusted")
	ErrInvalidIdentity     = errors.New("identity requires an email and a provider subject")
	ErrDomainNotAllowed    = errors.New("email domain is not allowed")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Identity is what the sign-in proxy asserts about a user after the provider login.
type Identity struct {
	ProviderID string `json:"provider_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
}

type AuthService interface {
	SignIn(proxySecret string, identity Identity) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, access *util.Claims, refreshToken string) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, name string) (*model.User, error)
}

type authService struct {
	userRepo       repository.UserRepository
	policy         util.EmailPolicy
	identitySecret string
	jwtSecret      string
	accessExpiry   time.Duration
	refreshExpiry  time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	policy util.EmailPolicy,
	identitySecret string,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		policy:         policy,
		identitySecret: identitySecret,
		jwtSecret:      jwtSecret,
		accessExpiry:   accessExpiry,
		refreshExpiry:  refreshExpiry,
	}
}

// SignIn trusts identity only when proxySecret matches the configured shared secret.
// The user is created on first sign-in; admin emails are promoted on every sign-in.
func (s *authService) SignIn(proxySecret string, identity Identity) (*model.User, *util.TokenPair, error) {
	if s.identitySecret == "" ||
		subtle.ConstantTimeCompare([]byte(proxySecret), []byte(s.identitySecret)) != 1 {
		logger.Warn("Sign-in rejected: untrusted identity proxy")
		return nil, nil, ErrIdentityUntrusted
	}

	email := util.NormalizeEmail(identity.Email)
	providerID := strings.TrimSpace(identity.ProviderID)
	if email == "" || providerID == "" {
		return nil, nil, ErrInvalidIdentity
	}

	logger.Info("Sign-in attempt", map[string]interface{}{
		"email": email,
	})

	if !s.policy.Allows(email) {
		logger.Warn("Sign-in rejected: domain not allowed", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrDomainNotAllowed
	}

	role := model.RoleUser
	if s.policy.IsAdmin(email) {
		role = model.RoleAdmin
	}

	user, err := s.userRepo.FindByEmail(email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		name := strings.TrimSpace(identity.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = &model.User{
			Email:      email,
			Name:       name,
			ImageURL:   identity.ImageURL,
			ProviderID: providerID,
			Role:       role,
		}
		if err := s.userRepo.Create(user); err != nil {
			logger.Error("Failed to create user on first sign-in", err, map[string]interface{}{
				"email": email,
			})
			return nil, nil, err
		}
		logger.Info("User created on first sign-in", map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role,
		})

	case err != nil:
		logger.Error("Failed to look up user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err

	default:
		changed := false
		if user.ProviderID != providerID {
			user.ProviderID = providerID
			changed = true
		}
		if identity.ImageURL != "" && user.ImageURL != identity.ImageURL {
			user.ImageURL = identity.ImageURL
			changed = true
		}
		if role == model.RoleAdmin && user.Role != model.RoleAdmin {
			user.Role = model.RoleAdmin
			changed = true
		}
		if changed {
			if err := s.userRepo.Update(user); err != nil {
				logger.Error("Failed to refresh user from identity", err, map[string]interface{}{
					"user_id": user.ID,
				})
				return nil, nil, err
			}
		}
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User signed in", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) issue(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new pair issued.
// The role is re-read from the database so promotions apply without a new sign-in.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil || claims.TokenType != util.RefreshToken {
		return nil, ErrInvalidRefreshToken
	}

	revoked, err := redis.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		logger.Warn("Refresh with revoked token", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if err := redis.BlacklistToken(ctx, claims.ID, remaining(claims)); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes the access token and, when supplied, the refresh token.
func (s *authService) Logout(ctx context.Context, access *util.Claims, refreshToken string) error {
	if access != nil {
		if err := redis.BlacklistToken(ctx, access.ID, remaining(access)); err != nil {
			return err
		}
	}

	if refreshToken != "" {
		claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
		if err == nil && claims.TokenType == util.RefreshToken {
			if err := redis.BlacklistToken(ctx, claims.ID, remaining(claims)); err != nil {
				return err
			}
		}
	}
	return nil
}

func remaining(claims *util.Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, ErrInvalidInput
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return user, nil
}
