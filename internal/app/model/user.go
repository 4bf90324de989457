package model

import (
	"time"
)

type VerifyStatus int // resident verification state

const (
	VerifyStatusPending  VerifyStatus = 0 // registered, waiting for staff
	VerifyStatusVerified VerifyStatus = 1 // identity checked by staff
)

// ResidentRole is the role claim carried by resident tokens
const ResidentRole = "resident"

type User struct {
	ID           uint         `gorm:"primarykey" json:"id"`                                      // resident ID
	LineUserID   string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"line_user_id"` // LINE subject (U...)
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`                    // full name
	IDCardNo     string       `gorm:"column:id_card_no;type:varchar(13)" json:"id_card_no"`      // national ID, 13 digits
	PhoneNo      string       `gorm:"type:varchar(10)" json:"phone_no"`                          // 10 digits, leading 0
	Email        string       `gorm:"type:varchar(255)" json:"email"`                            // optional email
	PictureURL   string       `gorm:"type:varchar(512)" json:"picture_url,omitempty"`            // LINE profile picture
	VerifyStatus VerifyStatus `gorm:"not null;default:0;index" json:"verify_status"`             // 0 pending, 1 verified
	VerifiedAt   *time.Time   `json:"verified_at,omitempty"`                                     // verification time
	VerifiedBy   *uint        `json:"verified_by,omitempty"`                                     // admin who verified
	CreatedAt    time.Time    `json:"created_at"`                                                // registration time
	UpdatedAt    time.Time    `json:"updated_at"`                                                // last update

	Addresses []Address `gorm:"foreignKey:UserID" json:"addresses,omitempty"` // owned addresses
}

func (User) TableName() string {
	return "users"
}

// IsVerified reports whether staff have verified the resident
func (u *User) IsVerified() bool {
	return u.VerifyStatus == VerifyStatusVerified
}
