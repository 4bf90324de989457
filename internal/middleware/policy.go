package middleware

import (
	"sort"

	"github.com/wastebill/wastebill-backend/internal/app/model"
)

// Permission names one back-office capability
type Permission string

const (
	PermUsersManage     Permission = "users.manage"
	PermAddressesVerify Permission = "addresses.verify"
	PermWasteRecord     Permission = "waste.record"
	PermPricesManage    Permission = "prices.manage"
	PermBillsManage     Permission = "bills.manage"
	PermSlipsReview     Permission = "slips.review"
	PermIssuesManage    Permission = "issues.manage"
	PermReportsExport   Permission = "reports.export"
	PermAuditView       Permission = "audit.view"
	PermAdminsManage    Permission = "admins.manage"
)

// Policy is the single role table. The API enforces it through
// RequirePermission and the admin UI reads it from GET /admin/policy.
var Policy = map[Permission][]model.AdminRole{
	PermUsersManage:     {model.AdminRoleSuperAdmin, model.AdminRoleStaff},
	PermAddressesVerify: {model.AdminRoleSuperAdmin, model.AdminRoleStaff},
	PermWasteRecord:     {model.AdminRoleSuperAdmin, model.AdminRoleStaff, model.AdminRoleCollector},
	PermPricesManage:    {model.AdminRoleSuperAdmin, model.AdminRoleAccountant},
	PermBillsManage:     {model.AdminRoleSuperAdmin, model.AdminRoleAccountant},
	PermSlipsReview:     {model.AdminRoleSuperAdmin, model.AdminRoleAccountant},
	PermIssuesManage:    {model.AdminRoleSuperAdmin, model.AdminRoleStaff},
	PermReportsExport:   {model.AdminRoleSuperAdmin, model.AdminRoleAccountant},
	PermAuditView:       {model.AdminRoleSuperAdmin},
	PermAdminsManage:    {model.AdminRoleSuperAdmin},
}

// Allowed reports whether role holds perm
func Allowed(role model.AdminRole, perm Permission) bool {
	for _, r := range Policy[perm] {
		if r == role {
			return true
		}
	}
	return false
}

// PermissionsFor lists the permissions of role in stable order
func PermissionsFor(role model.AdminRole) []Permission {
	perms := make([]Permission, 0, len(Policy))
	for perm := range Policy {
		if Allowed(role, perm) {
			perms = append(perms, perm)
		}
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}
