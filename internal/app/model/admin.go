package model

import (
	"time"
)

type AdminRole string // back-office role

const (
	AdminRoleSuperAdmin AdminRole = "super_admin" // everything, including admin accounts
	AdminRoleStaff      AdminRole = "staff"       // residents, addresses, issues
	AdminRoleAccountant AdminRole = "accountant"  // bills, slips, reports
	AdminRoleCollector  AdminRole = "collector"   // barcode scan and weighing
)

// AdminRoles lists every back-office role
var AdminRoles = []AdminRole{AdminRoleSuperAdmin, AdminRoleStaff, AdminRoleAccountant, AdminRoleCollector}

func (r AdminRole) Valid() bool {
	switch r {
	case AdminRoleSuperAdmin, AdminRoleStaff, AdminRoleAccountant, AdminRoleCollector:
		return true
	}
	return false
}

type AdminAccount struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string     `gorm:"type:varchar(255)" json:"full_name"`
	Role         AdminRole  `gorm:"type:varchar(20);not null;index" json:"role"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (AdminAccount) TableName() string {
	return "admin_accounts"
}
