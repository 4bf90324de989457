package model

import (
	"time"

	"github.com/wastebill/wastebill-backend/pkg/util"
	"gorm.io/gorm"
)

type AddressType string // price class of an address

const (
	AddressHousehold     AddressType = "household"     // private residence
	AddressEstablishment AddressType = "establishment" // shop, office, factory
)

// AddressTypes lists both price classes
var AddressTypes = []AddressType{AddressHousehold, AddressEstablishment}

func (t AddressType) Valid() bool {
	return t == AddressHousehold || t == AddressEstablishment
}

type Address struct {
	ID          uint        `gorm:"primarykey" json:"id"`                                                    // address ID
	UserID      uint        `gorm:"not null;index" json:"user_id"`                                           // owner
	HouseNo     string      `gorm:"type:varchar(50);not null" json:"house_no"`                               // house number
	Village     string      `gorm:"type:varchar(100)" json:"village"`                                        // moo / village
	SubDistrict string      `gorm:"type:varchar(100);not null" json:"sub_district"`                          // tambon
	District    string      `gorm:"type:varchar(100);not null" json:"district"`                              // amphoe
	Province    string      `gorm:"type:varchar(100);not null" json:"province"`                              // changwat
	PostalCode  string      `gorm:"type:varchar(5)" json:"postal_code"`                                      // 5 digits
	AddressType AddressType `gorm:"type:varchar(20);not null;default:'household';index" json:"address_type"` // price class
	Verified    bool        `gorm:"column:address_verified;not null;default:false;index" json:"address_verified"`
	VerifiedAt  *time.Time  `json:"verified_at,omitempty"`
	VerifiedBy  *uint       `json:"verified_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Barcode string `gorm:"-" json:"barcode"` // printed on the collection bin

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"` // owner details
}

func (Address) TableName() string {
	return "addresses"
}

func (a *Address) AfterFind(tx *gorm.DB) error {
	a.Barcode = util.FormatAddressBarcode(a.ID)
	return nil
}

func (a *Address) AfterCreate(tx *gorm.DB) error {
	a.Barcode = util.FormatAddressBarcode(a.ID)
	return nil
}
