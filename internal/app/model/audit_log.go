package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit action types
const (
	AuditUserVerified    = "user.verify"
	AuditUserDeleted     = "user.delete"
	AuditAddressVerified = "address.verify"
	AuditWasteRecorded   = "waste.record"
	AuditPricesUpdated   = "prices.update"
	AuditBillCreated     = "bill.create_manual"
	AuditBillStatus      = "bill.status"
	AuditBillingRun      = "bill.generate_monthly"
	AuditSlipApproved    = "slip.approve"
	AuditSlipRejected    = "slip.reject"
	AuditIssueAcked      = "issue.acknowledge"
	AuditIssueResolved   = "issue.resolve"
	AuditAdminCreated    = "admin.create"
	AuditAdminDisabled   = "admin.deactivate"
	AuditReportExported  = "report.export"
)

type AuditLog struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	AdminID    uint           `gorm:"not null;index" json:"admin_id"`
	Role       AdminRole      `gorm:"type:varchar(20);not null" json:"role"`
	ActionType string         `gorm:"type:varchar(50);not null;index" json:"action_type"`
	EntityType string         `gorm:"type:varchar(50);index" json:"entity_type"`
	EntityID   uint           `gorm:"index" json:"entity_id"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
