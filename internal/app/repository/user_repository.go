package repository

import (
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserFilter struct {
	Search       string // name, phone, ID card or LINE id
	VerifyStatus *model.VerifyStatus
	Page         int
	PageSize     int
}

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByIDWithAddresses(id uint) (*model.User, error)
	FindByLineUserID(lineUserID string) (*model.User, error)
	List(filter UserFilter) ([]model.User, int64, error)
	Update(user *model.User) error
	DeleteWithDependents(id uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"line_user_id": user.LineUserID,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"line_user_id": user.LineUserID,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id":      user.ID,
		"line_user_id": user.LineUserID,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		logger.Error("Failed to find user by ID in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDWithAddresses(id uint) (*model.User, error) {
	var user model.User
	err := r.db.Preload("Addresses", func(db *gorm.DB) *gorm.DB {
		return db.Order("addresses.id ASC")
	}).First(&user, id).Error
	if err != nil {
		logger.Error("Failed to find user with addresses in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	logger.Debug("User with addresses found in database", map[string]interface{}{
		"user_id":       user.ID,
		"address_count": len(user.Addresses),
	})
	return &user, nil
}

// FindByLineUserID returns gorm.ErrRecordNotFound for unregistered LINE accounts
func (r *userRepository) FindByLineUserID(lineUserID string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("line_user_id = ?", lineUserID).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find user by LINE id in database", err, map[string]interface{}{
				"line_user_id": lineUserID,
			})
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(filter UserFilter) ([]model.User, int64, error) {
	query := r.db.Model(&model.User{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR phone_no LIKE ? OR id_card_no LIKE ? OR line_user_id = ?",
			like, like, like, filter.Search)
	}
	if filter.VerifyStatus != nil {
		query = query.Where("verify_status = ?", *filter.VerifyStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count users", err)
		return nil, 0, err
	}

	var users []model.User
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC, id DESC").
		Find(&users).Error; err != nil {
		logger.Error("Failed to list users", err)
		return nil, 0, err
	}

	logger.Debug("Users listed", map[string]interface{}{
		"count": len(users),
		"total": total,
	})
	return users, total, nil
}

func (r *userRepository) Update(user *model.User) error {
	if err := r.db.Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}
	return nil
}

// DeleteWithDependents removes a resident and everything hanging off them
// (notifications, slips, bills, waste records, issues, addresses) in one transaction.
func (r *userRepository) DeleteWithDependents(id uint) error {
	logger.Debug("Deleting user with dependents", map[string]interface{}{
		"user_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		addressIDs := tx.Model(&model.Address{}).Select("id").Where("user_id = ?", id)
		billIDs := tx.Model(&model.Bill{}).Select("id").Where("address_id IN (?)", addressIDs)
		slipIDs := tx.Model(&model.PaymentSlip{}).Select("id").Where("user_id = ?", id)

		steps := []struct {
			name string
			run  func() error
		}{
			{"notifications", func() error {
				return tx.Where("user_id = ?", id).Delete(&model.Notification{}).Error
			}},
			{"payment_slip_bills", func() error {
				return tx.Exec("DELETE FROM payment_slip_bills WHERE payment_slip_id IN (?) OR bill_id IN (?)", slipIDs, billIDs).Error
			}},
			{"payment_slips", func() error {
				return tx.Where("user_id = ?", id).Delete(&model.PaymentSlip{}).Error
			}},
			{"bill_items", func() error {
				return tx.Where("bill_id IN (?)", billIDs).Delete(&model.BillItem{}).Error
			}},
			{"waste_records", func() error {
				return tx.Where("address_id IN (?)", addressIDs).Delete(&model.WasteRecord{}).Error
			}},
			{"bills", func() error {
				return tx.Where("address_id IN (?)", addressIDs).Delete(&model.Bill{}).Error
			}},
			{"issue_reports", func() error {
				return tx.Where("user_id = ?", id).Delete(&model.IssueReport{}).Error
			}},
			{"addresses", func() error {
				return tx.Where("user_id = ?", id).Delete(&model.Address{}).Error
			}},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				logger.Error("Failed to delete user dependents", err, map[string]interface{}{
					"user_id": id,
					"table":   step.name,
				})
				return err
			}
		}

		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("User deleted with dependents", map[string]interface{}{
		"user_id": id,
	})
	return nil
}
