package service

import (
	"context"
	"errors"
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrUserAlreadyVerified = errors.New("user is already verified")

type UserService interface {
	ListUsers(filter repository.UserFilter) (*Page[model.User], error)
	GetUser(id uint) (*model.User, error)
	VerifyUser(ctx context.Context, actor Actor, id uint) (*model.User, error)
	DeleteUser(actor Actor, id uint) error
}

type userService struct {
	userRepo      repository.UserRepository
	audit         AuditService
	notifications NotificationService
}

func NewUserService(userRepo repository.UserRepository, audit AuditService, notifications NotificationService) UserService {
	return &userService{
		userRepo:      userRepo,
		audit:         audit,
		notifications: notifications,
	}
}

func (s *userService) ListUsers(filter repository.UserFilter) (*Page[model.User], error) {
	users, total, err := s.userRepo.List(filter)
	if err != nil {
		return nil, err
	}
	page, size := repository.NormalizePage(filter.Page, filter.PageSize)
	return &Page[model.User]{Items: users, Total: total, Page: page, PageSize: size}, nil
}

func (s *userService) GetUser(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByIDWithAddresses(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) VerifyUser(ctx context.Context, actor Actor, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsVerified() {
		return nil, ErrUserAlreadyVerified
	}

	now := time.Now()
	user.VerifyStatus = model.VerifyStatusVerified
	user.VerifiedAt = &now
	user.VerifiedBy = &actor.ID
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	s.audit.Record(actor, model.AuditUserVerified, "user", user.ID, nil)
	s.notifications.Notify(ctx, user, userVerifiedMessage())

	logger.Info("Resident verified", map[string]interface{}{
		"user_id":     user.ID,
		"verified_by": actor.ID,
	})
	return user, nil
}

// DeleteUser removes the resident together with addresses, records, bills and slips
func (s *userService) DeleteUser(actor Actor, id uint) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.userRepo.DeleteWithDependents(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		logger.Error("Failed to delete resident", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}

	s.audit.Record(actor, model.AuditUserDeleted, "user", id, map[string]interface{}{
		"name":         user.Name,
		"line_user_id": user.LineUserID,
	})
	logger.Info("Resident deleted", map[string]interface{}{
		"user_id":    id,
		"deleted_by": actor.ID,
	})
	return nil
}
