package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/pkg/line"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"github.com/wastebill/wastebill-backend/pkg/redis"
	"github.com/wastebill/wastebill-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrLineTokenInvalid      = errors.New("LINE ID token is invalid")
	ErrLineUnavailable       = errors.New("LINE service unavailable")
	ErrUserNotRegistered     = errors.New("LINE account is not registered")
	ErrUserAlreadyRegistered = errors.New("LINE account is already registered")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrUserNotFound          = errors.New("user not found")
	ErrProfileLocked         = errors.New("verified profile cannot change name or ID card")
)

// RegisterInput is the resident sign-up form sent with the LIFF ID token
type RegisterInput struct {
	IDToken  string
	Name     string
	IDCardNo string
	PhoneNo  string
	Email    string
}

// ProfileInput updates the caller's own profile; nil fields are left alone
type ProfileInput struct {
	Name     *string
	IDCardNo *string
	PhoneNo  *string
	Email    *string
}

// TokenRevoker blacklists a token id for ttl
type TokenRevoker func(ctx context.Context, jti string, ttl time.Duration) error

type AuthService interface {
	RegisterWithLine(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error)
	LoginWithLine(ctx context.Context, idToken string) (*model.User, *util.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, access *util.Claims, refreshToken string) error
	GetMe(userID uint) (*model.User, error)
	UpdateMe(userID uint, input ProfileInput) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	adminRepo     repository.AdminRepository
	verifier      IDTokenVerifier
	notifications NotificationService
	revoke        TokenRevoker
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	adminRepo repository.AdminRepository,
	verifier IDTokenVerifier,
	notifications NotificationService,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		adminRepo:     adminRepo,
		verifier:      verifier,
		notifications: notifications,
		revoke:        redis.BlacklistToken,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// WithTokenRevoker replaces the redis blacklist, mainly for tests
func WithTokenRevoker(svc AuthService, revoke TokenRevoker) AuthService {
	if s, ok := svc.(*authService); ok {
		s.revoke = revoke
	}
	return svc
}

func (s *authService) verifyLine(ctx context.Context, idToken string) (*line.IDTokenClaims, error) {
	claims, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, line.ErrInvalidIDToken) {
			return nil, ErrLineTokenInvalid
		}
		logger.Error("LINE ID token verification failed", err)
		return nil, ErrLineUnavailable
	}
	return claims, nil
}

func (s *authService) RegisterWithLine(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error) {
	claims, err := s.verifyLine(ctx, input.IDToken)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Attempting resident registration", map[string]interface{}{
		"line_user_id": claims.Subject,
	})

	existing, err := s.userRepo.FindByLineUserID(claims.Subject)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: LINE account already registered", map[string]interface{}{
			"line_user_id": claims.Subject,
			"user_id":      existing.ID,
		})
		return nil, nil, ErrUserAlreadyRegistered
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = claims.Name
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		email = claims.Email
	}

	user := &model.User{
		LineUserID:   claims.Subject,
		Name:         name,
		IDCardNo:     strings.ReplaceAll(input.IDCardNo, "-", ""),
		PhoneNo:      util.NormalizePhone(input.PhoneNo),
		Email:        email,
		PictureURL:   claims.Picture,
		VerifyStatus: model.VerifyStatusPending,
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, nil, ErrUserAlreadyRegistered
		}
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user.ID, user.LineUserID, model.ResidentRole)
	if err != nil {
		return nil, nil, err
	}

	s.notifications.Notify(ctx, user, registeredMessage(user))

	logger.Info("Resident registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

func (s *authService) LoginWithLine(ctx context.Context, idToken string) (*model.User, *util.TokenPair, error) {
	claims, err := s.verifyLine(ctx, idToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByLineUserID(claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("LINE login for unregistered account", map[string]interface{}{
				"line_user_id": claims.Subject,
			})
			return nil, nil, ErrUserNotRegistered
		}
		return nil, nil, err
	}

	// keep the LINE picture fresh
	if claims.Picture != "" && claims.Picture != user.PictureURL {
		user.PictureURL = claims.Picture
		if err := s.userRepo.Update(user); err != nil {
			logger.Warn("Failed to refresh LINE picture", map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}

	tokens, err := s.issueTokens(user.ID, user.LineUserID, model.ResidentRole)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Resident logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

// RefreshToken rotates a token pair for residents and admins alike
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateTokenOfType(refreshToken, s.jwtSecret, util.RefreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	revoked, err := redis.IsTokenBlacklisted(ctx, claims.ID)
	if err == nil && revoked {
		return nil, ErrInvalidRefreshToken
	}

	if claims.Role == model.ResidentRole {
		if _, err := s.userRepo.FindByID(claims.SubjectID); err != nil {
			return nil, ErrInvalidRefreshToken
		}
	} else {
		admin, err := s.adminRepo.FindByID(claims.SubjectID)
		if err != nil || !admin.Active || string(admin.Role) != claims.Role {
			return nil, ErrInvalidRefreshToken
		}
	}

	// the old refresh token is single use
	if err := s.revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		logger.Warn("Failed to revoke used refresh token", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return s.issueTokens(claims.SubjectID, claims.Subject, claims.Role)
}

// Logout revokes the access token and, when given, the refresh token
func (s *authService) Logout(ctx context.Context, access *util.Claims, refreshToken string) error {
	if access != nil {
		if err := s.revoke(ctx, access.ID, access.RemainingTTL()); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if claims, err := util.ValidateTokenOfType(refreshToken, s.jwtSecret, util.RefreshToken); err == nil {
			if err := s.revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
				return err
			}
		}
	}

	if access != nil {
		logger.Info("Logged out", map[string]interface{}{
			"subject_id": access.SubjectID,
			"role":       access.Role,
		})
	}
	return nil
}

func (s *authService) GetMe(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByIDWithAddresses(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateMe(userID uint, input ProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.IsVerified() {
		nameChanged := input.Name != nil && strings.TrimSpace(*input.Name) != user.Name
		idChanged := input.IDCardNo != nil && strings.ReplaceAll(*input.IDCardNo, "-", "") != user.IDCardNo
		if nameChanged || idChanged {
			return nil, ErrProfileLocked
		}
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.IDCardNo != nil {
		user.IDCardNo = strings.ReplaceAll(*input.IDCardNo, "-", "")
	}
	if input.PhoneNo != nil {
		user.PhoneNo = util.NormalizePhone(*input.PhoneNo)
	}
	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("Resident profile updated", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) issueTokens(id uint, subject, role string) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(id, subject, role, s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"subject_id": id,
			"role":       role,
		})
		return nil, err
	}
	return tokens, nil
}
