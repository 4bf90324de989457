package repository

import (
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

type AdminRepository interface {
	Create(admin *model.AdminAccount) error
	FindByID(id uint) (*model.AdminAccount, error)
	FindByUsername(username string) (*model.AdminAccount, error)
	List() ([]model.AdminAccount, error)
	SetActive(id uint, active bool) error
	TouchLastLogin(id uint, at time.Time) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(admin *model.AdminAccount) error {
	logger.Debug("Creating admin account", map[string]interface{}{
		"username": admin.Username,
		"role":     admin.Role,
	})

	if err := r.db.Create(admin).Error; err != nil {
		logger.Error("Failed to create admin account", err, map[string]interface{}{
			"username": admin.Username,
		})
		return err
	}
	return nil
}

func (r *adminRepository) FindByID(id uint) (*model.AdminAccount, error) {
	var admin model.AdminAccount
	if err := r.db.First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByUsername(username string) (*model.AdminAccount, error) {
	var admin model.AdminAccount
	if err := r.db.Where("username = ?", username).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) List() ([]model.AdminAccount, error) {
	var admins []model.AdminAccount
	if err := r.db.Order("id ASC").Find(&admins).Error; err != nil {
		logger.Error("Failed to list admin accounts", err)
		return nil, err
	}
	return admins, nil
}

func (r *adminRepository) SetActive(id uint, active bool) error {
	res := r.db.Model(&model.AdminAccount{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		logger.Error("Failed to update admin active flag", res.Error, map[string]interface{}{
			"admin_id": id,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *adminRepository) TouchLastLogin(id uint, at time.Time) error {
	return r.db.Model(&model.AdminAccount{}).Where("id = ?", id).Update("last_login_at", at).Error
}
