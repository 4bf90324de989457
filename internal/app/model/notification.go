package model

import (
	"time"
)

type NotificationType string

const (
	NotificationRegistered    NotificationType = "registered"
	NotificationUserVerified  NotificationType = "user_verified"
	NotificationBillIssued    NotificationType = "bill_issued"
	NotificationSlipApproved  NotificationType = "slip_approved"
	NotificationSlipRejected  NotificationType = "slip_rejected"
	NotificationIssueAcked    NotificationType = "issue_acknowledged"
	NotificationIssueResolved NotificationType = "issue_resolved"
)

// Notification is a resident inbox entry, mirrored to LINE when push is enabled
type Notification struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	Pushed    bool             `gorm:"not null;default:false" json:"pushed"` // delivered to LINE
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	RelatedBillID  *uint `gorm:"index" json:"related_bill_id,omitempty"`
	RelatedSlipID  *uint `gorm:"index" json:"related_slip_id,omitempty"`
	RelatedIssueID *uint `gorm:"index" json:"related_issue_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
