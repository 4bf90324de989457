package repository

import (
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

type AuditFilter struct {
	AdminID    *uint
	ActionType string
	EntityType string
	EntityID   *uint
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

type AuditRepository interface {
	WithTx(tx *gorm.DB) AuditRepository
	Create(entry *model.AuditLog) error
	List(filter AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) WithTx(tx *gorm.DB) AuditRepository {
	return &auditRepository{db: tx}
}

func (r *auditRepository) Create(entry *model.AuditLog) error {
	return r.db.Create(entry).Error
}

func (r *auditRepository) List(filter AuditFilter) ([]model.AuditLog, int64, error) {
	query := r.db.Model(&model.AuditLog{})
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", filter.To.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count audit logs", err)
		return nil, 0, err
	}

	var entries []model.AuditLog
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		logger.Error("Failed to list audit logs", err)
		return nil, 0, err
	}
	return entries, total, nil
}
