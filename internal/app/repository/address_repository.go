package repository

import (
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

type AddressFilter struct {
	UserID      *uint
	Verified    *bool
	AddressType model.AddressType
	Search      string // house no, village, sub-district or district
	Page        int
	PageSize    int
}

type AddressRepository interface {
	WithTx(tx *gorm.DB) AddressRepository
	Create(address *model.Address) error
	FindByID(id uint) (*model.Address, error)
	FindByUserID(userID uint) ([]model.Address, error)
	FindByIDs(ids []uint) ([]model.Address, error)
	List(filter AddressFilter) ([]model.Address, int64, error)
	ListVerified() ([]model.Address, error)
	Update(address *model.Address) error
	Delete(id uint) error
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) WithTx(tx *gorm.DB) AddressRepository {
	return &addressRepository{db: tx}
}

func (r *addressRepository) Create(address *model.Address) error {
	logger.Debug("Creating address in database", map[string]interface{}{
		"user_id": address.UserID,
	})

	if err := r.db.Create(address).Error; err != nil {
		logger.Error("Failed to create address in database", err, map[string]interface{}{
			"user_id": address.UserID,
		})
		return err
	}

	logger.Debug("Address created in database", map[string]interface{}{
		"address_id": address.ID,
		"barcode":    address.Barcode,
	})
	return nil
}

// FindByID loads the address with its owner
func (r *addressRepository) FindByID(id uint) (*model.Address, error) {
	var address model.Address
	if err := r.db.Preload("User").First(&address, id).Error; err != nil {
		logger.Error("Failed to find address by ID in database", err, map[string]interface{}{
			"address_id": id,
		})
		return nil, err
	}
	return &address, nil
}

func (r *addressRepository) FindByUserID(userID uint) ([]model.Address, error) {
	var addresses []model.Address
	if err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&addresses).Error; err != nil {
		logger.Error("Failed to find addresses by user", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

func (r *addressRepository) List(filter AddressFilter) ([]model.Address, int64, error) {
	query := r.db.Model(&model.Address{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Verified != nil {
		query = query.Where("address_verified = ?", *filter.Verified)
	}
	if filter.AddressType != "" {
		query = query.Where("address_type = ?", filter.AddressType)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("house_no LIKE ? OR village LIKE ? OR sub_district LIKE ? OR district LIKE ?",
			like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count addresses", err)
		return nil, 0, err
	}

	var addresses []model.Address
	if err := query.Preload("User").
		Scopes(paginate(filter.Page, filter.PageSize)).
		Order("id DESC").
		Find(&addresses).Error; err != nil {
		logger.Error("Failed to list addresses", err)
		return nil, 0, err
	}

	logger.Debug("Addresses listed", map[string]interface{}{
		"count": len(addresses),
		"total": total,
	})
	return addresses, total, nil
}

// FindByIDs loads addresses with their owner; missing ids are simply absent
func (r *addressRepository) FindByIDs(ids []uint) ([]model.Address, error) {
	var addresses []model.Address
	if len(ids) == 0 {
		return addresses, nil
	}
	if err := r.db.Preload("User").Where("id IN ?", ids).Order("id ASC").Find(&addresses).Error; err != nil {
		logger.Error("Failed to find addresses by IDs", err, map[string]interface{}{
			"address_ids": ids,
		})
		return nil, err
	}
	return addresses, nil
}

// ListVerified returns every billable address with its owner
func (r *addressRepository) ListVerified() ([]model.Address, error) {
	var addresses []model.Address
	if err := r.db.Preload("User").Where("address_verified = ?", true).Order("id ASC").Find(&addresses).Error; err != nil {
		logger.Error("Failed to list verified addresses", err)
		return nil, err
	}
	return addresses, nil
}

func (r *addressRepository) Update(address *model.Address) error {
	if err := r.db.Omit("User").Save(address).Error; err != nil {
		logger.Error("Failed to update address in database", err, map[string]interface{}{
			"address_id": address.ID,
		})
		return err
	}
	return nil
}

func (r *addressRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Address{}, id).Error; err != nil {
		logger.Error("Failed to delete address from database", err, map[string]interface{}{
			"address_id": id,
		})
		return err
	}
	return nil
}
