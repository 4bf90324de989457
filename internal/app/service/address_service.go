package service

import (
	"errors"
	"strings"
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrAddressNotFound        = errors.New("address not found")
	ErrUnauthorizedAccess     = errors.New("unauthorized access to address")
	ErrAddressLocked          = errors.New("verified address cannot be changed")
	ErrAddressAlreadyVerified = errors.New("address is already verified")
	ErrUserNotVerified        = errors.New("address owner is not verified")
	ErrInvalidAddressType     = errors.New("invalid address type")
)

// AddressInput is the editable part of an address
type AddressInput struct {
	HouseNo     string
	Village     string
	SubDistrict string
	District    string
	Province    string
	PostalCode  string
	AddressType model.AddressType
}

type AddressService interface {
	GetUserAddresses(userID uint) ([]model.Address, error)
	CreateAddress(userID uint, input AddressInput) (*model.Address, error)
	UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
	ListAddresses(filter repository.AddressFilter) (*Page[model.Address], error)
	VerifyAddress(actor Actor, addressID uint) (*model.Address, error)
}

type addressService struct {
	addressRepo repository.AddressRepository
	audit       AuditService
}

func NewAddressService(addressRepo repository.AddressRepository, audit AuditService) AddressService {
	return &addressService{
		addressRepo: addressRepo,
		audit:       audit,
	}
}

func (s *addressService) GetUserAddresses(userID uint) ([]model.Address, error) {
	logger.Debug("Fetching user addresses", map[string]interface{}{
		"user_id": userID,
	})

	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

func (s *addressService) CreateAddress(userID uint, input AddressInput) (*model.Address, error) {
	if input.AddressType == "" {
		input.AddressType = model.AddressHousehold
	}
	if !input.AddressType.Valid() {
		return nil, ErrInvalidAddressType
	}

	address := &model.Address{UserID: userID}
	input.apply(address)
	if err := s.addressRepo.Create(address); err != nil {
		logger.Error("Failed to create address", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Address created", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
		"type":       address.AddressType,
	})
	return address, nil
}

func (s *addressService) UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error) {
	address, err := s.ownedAddress(userID, addressID)
	if err != nil {
		return nil, err
	}
	if address.Verified {
		return nil, ErrAddressLocked
	}
	if input.AddressType == "" {
		input.AddressType = address.AddressType
	}
	if !input.AddressType.Valid() {
		return nil, ErrInvalidAddressType
	}

	input.apply(address)
	if err := s.addressRepo.Update(address); err != nil {
		logger.Error("Failed to update address", err, map[string]interface{}{
			"address_id": addressID,
		})
		return nil, err
	}

	logger.Info("Address updated", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return address, nil
}

func (s *addressService) DeleteAddress(userID, addressID uint) error {
	address, err := s.ownedAddress(userID, addressID)
	if err != nil {
		return err
	}
	if address.Verified {
		return ErrAddressLocked
	}

	if err := s.addressRepo.Delete(addressID); err != nil {
		logger.Error("Failed to delete address", err, map[string]interface{}{
			"address_id": addressID,
		})
		return err
	}

	logger.Info("Address deleted", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}

func (s *addressService) ListAddresses(filter repository.AddressFilter) (*Page[model.Address], error) {
	addresses, total, err := s.addressRepo.List(filter)
	if err != nil {
		return nil, err
	}
	page, size := repository.NormalizePage(filter.Page, filter.PageSize)
	return &Page[model.Address]{Items: addresses, Total: total, Page: page, PageSize: size}, nil
}

// VerifyAddress marks an address billable. The owner must be verified first.
func (s *addressService) VerifyAddress(actor Actor, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if address.Verified {
		return nil, ErrAddressAlreadyVerified
	}
	if address.User == nil || !address.User.IsVerified() {
		logger.Warn("Address verification blocked: owner not verified", map[string]interface{}{
			"address_id": addressID,
			"user_id":    address.UserID,
		})
		return nil, ErrUserNotVerified
	}

	now := time.Now()
	address.Verified = true
	address.VerifiedAt = &now
	address.VerifiedBy = &actor.ID
	if err := s.addressRepo.Update(address); err != nil {
		return nil, err
	}

	s.audit.Record(actor, model.AuditAddressVerified, "address", address.ID, map[string]interface{}{
		"user_id": address.UserID,
		"barcode": address.Barcode,
	})
	logger.Info("Address verified", map[string]interface{}{
		"address_id":  address.ID,
		"verified_by": actor.ID,
	})
	return address, nil
}

func (s *addressService) ownedAddress(userID, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if address.UserID != userID {
		logger.Warn("Unauthorized address access attempt", map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
			"owner_id":   address.UserID,
		})
		return nil, ErrUnauthorizedAccess
	}
	return address, nil
}

func (in AddressInput) apply(a *model.Address) {
	a.HouseNo = strings.TrimSpace(in.HouseNo)
	a.Village = strings.TrimSpace(in.Village)
	a.SubDistrict = strings.TrimSpace(in.SubDistrict)
	a.District = strings.TrimSpace(in.District)
	a.Province = strings.TrimSpace(in.Province)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.AddressType = in.AddressType
}
