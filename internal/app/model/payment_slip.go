package model

import (
	"time"
)

type SlipStatus string // review state of a payment slip

const (
	SlipStatusPending  SlipStatus = "pending"  // waiting for review
	SlipStatusApproved SlipStatus = "approved" // bills marked paid
	SlipStatusRejected SlipStatus = "rejected" // bills back to unpaid
)

// CanTransitionSlip reports whether a slip may move from one status to another.
// Only pending slips can be decided; approved and rejected are final.
func CanTransitionSlip(from, to SlipStatus) bool {
	if from != SlipStatusPending {
		return false
	}
	return to == SlipStatusApproved || to == SlipStatusRejected
}

type PaymentSlip struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	ImagePath  string     `gorm:"type:varchar(512);not null" json:"image_path"` // storage key
	ImageURL   string     `gorm:"type:varchar(1024)" json:"image_url"`          // public URL
	Status     SlipStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Note       string     `gorm:"type:text" json:"note,omitempty"`        // resident note
	ReviewNote string     `gorm:"type:text" json:"review_note,omitempty"` // reason given by reviewer
	ReviewedBy *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	UploadedAt time.Time  `gorm:"not null;index" json:"uploaded_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Bills []Bill `gorm:"many2many:payment_slip_bills;" json:"bills,omitempty"`
}

func (PaymentSlip) TableName() string {
	return "payment_slips"
}
