package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"github.com/wastebill/wastebill-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrAccountDisabled      = errors.New("admin account is disabled")
	ErrAdminNotFound        = errors.New("admin not found")
	ErrAdminUsernameExists  = errors.New("admin username already exists")
	ErrInvalidAdminRole     = errors.New("invalid admin role")
	ErrCannotDisableSelf    = errors.New("cannot deactivate your own account")
	ErrAdminPasswordTooWeak = errors.New("admin password is too short")
)

type CreateAdminInput struct {
	Username string
	Password string
	FullName string
	Role     model.AdminRole
}

type AdminService interface {
	Login(ctx context.Context, username, password string) (*model.AdminAccount, *util.TokenPair, error)
	GetAdmin(id uint) (*model.AdminAccount, error)
	CreateAdmin(actor Actor, input CreateAdminInput) (*model.AdminAccount, error)
	ListAdmins() ([]model.AdminAccount, error)
	DeactivateAdmin(actor Actor, id uint) error
}

type adminService struct {
	adminRepo     repository.AdminRepository
	audit         AuditService
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAdminService(
	adminRepo repository.AdminRepository,
	audit AuditService,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AdminService {
	return &adminService{
		adminRepo:     adminRepo,
		audit:         audit,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *adminService) Login(ctx context.Context, username, password string) (*model.AdminAccount, *util.TokenPair, error) {
	username = strings.TrimSpace(username)
	logger.Info("Admin login attempt", map[string]interface{}{
		"username": username,
	})

	admin, err := s.adminRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Admin login failed: unknown username", map[string]interface{}{
				"username": username,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(admin.PasswordHash, password) {
		logger.Warn("Admin login failed: wrong password", map[string]interface{}{
			"admin_id": admin.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}
	if !admin.Active {
		logger.Warn("Admin login failed: account disabled", map[string]interface{}{
			"admin_id": admin.ID,
		})
		return nil, nil, ErrAccountDisabled
	}

	tokens, err := util.GenerateTokenPair(admin.ID, admin.Username, string(admin.Role), s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		logger.Error("Failed to generate admin tokens", err, map[string]interface{}{
			"admin_id": admin.ID,
		})
		return nil, nil, err
	}

	now := time.Now()
	if err := s.adminRepo.TouchLastLogin(admin.ID, now); err != nil {
		logger.Warn("Failed to record admin last login", map[string]interface{}{
			"admin_id": admin.ID,
			"error":    err.Error(),
		})
	} else {
		admin.LastLoginAt = &now
	}

	logger.Info("Admin logged in", map[string]interface{}{
		"admin_id": admin.ID,
		"role":     admin.Role,
	})
	return admin, tokens, nil
}

func (s *adminService) GetAdmin(id uint) (*model.AdminAccount, error) {
	admin, err := s.adminRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}

func (s *adminService) CreateAdmin(actor Actor, input CreateAdminInput) (*model.AdminAccount, error) {
	if !input.Role.Valid() {
		return nil, ErrInvalidAdminRole
	}
	hash, err := util.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, util.ErrPasswordTooShort) {
			return nil, ErrAdminPasswordTooWeak
		}
		return nil, err
	}

	admin := &model.AdminAccount{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         input.Role,
		Active:       true,
	}
	if err := s.adminRepo.Create(admin); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrAdminUsernameExists
		}
		return nil, err
	}

	s.audit.Record(actor, model.AuditAdminCreated, "admin", admin.ID, map[string]interface{}{
		"username": admin.Username,
		"role":     admin.Role,
	})
	logger.Info("Admin account created", map[string]interface{}{
		"admin_id":   admin.ID,
		"role":       admin.Role,
		"created_by": actor.ID,
	})
	return admin, nil
}

func (s *adminService) ListAdmins() ([]model.AdminAccount, error) {
	return s.adminRepo.List()
}

func (s *adminService) DeactivateAdmin(actor Actor, id uint) error {
	if actor.ID == id {
		return ErrCannotDisableSelf
	}
	if err := s.adminRepo.SetActive(id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		return err
	}

	s.audit.Record(actor, model.AuditAdminDisabled, "admin", id, nil)
	logger.Info("Admin account deactivated", map[string]interface{}{
		"admin_id":       id,
		"deactivated_by": actor.ID,
	})
	return nil
}
