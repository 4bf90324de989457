package model

import (
	"time"
)

type IssueStatus string

const (
	IssueStatusOpen         IssueStatus = "open"
	IssueStatusAcknowledged IssueStatus = "acknowledged"
	IssueStatusResolved     IssueStatus = "resolved"
)

// CanTransitionIssue allows open -> acknowledged -> resolved, and open -> resolved.
func CanTransitionIssue(from, to IssueStatus) bool {
	switch from {
	case IssueStatusOpen:
		return to == IssueStatusAcknowledged || to == IssueStatusResolved
	case IssueStatusAcknowledged:
		return to == IssueStatusResolved
	}
	return false
}

// IssueReport is a resident complaint, e.g. a missed collection
type IssueReport struct {
	ID             uint        `gorm:"primarykey" json:"id"`
	UserID         uint        `gorm:"not null;index" json:"user_id"`
	AddressID      *uint       `gorm:"index" json:"address_id,omitempty"`
	Title          string      `gorm:"type:varchar(255);not null" json:"title"`
	Detail         string      `gorm:"type:text" json:"detail"`
	Status         IssueStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	AdminNote      string      `gorm:"type:text" json:"admin_note,omitempty"`
	AcknowledgedBy *uint       `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Address *Address `gorm:"foreignKey:AddressID" json:"address,omitempty"`
}

func (IssueReport) TableName() string {
	return "issue_reports"
}
