package service

import (
	"encoding/json"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/datatypes"
)

type AuditService interface {
	Record(actor Actor, action, entityType string, entityID uint, details map[string]interface{})
	List(filter repository.AuditFilter) (*Page[model.AuditLog], error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// Record writes an audit entry. Failures are logged and never reach the caller.
func (s *auditService) Record(actor Actor, action, entityType string, entityID uint, details map[string]interface{}) {
	entry := &model.AuditLog{
		AdminID:    actor.ID,
		Role:       actor.Role,
		ActionType: action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			logger.Warn("Failed to marshal audit details", map[string]interface{}{
				"action": action,
				"error":  err.Error(),
			})
		} else {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := s.auditRepo.Create(entry); err != nil {
		logger.Error("Failed to write audit log", err, map[string]interface{}{
			"admin_id":  actor.ID,
			"action":    action,
			"entity":    entityType,
			"entity_id": entityID,
		})
	}
}

func (s *auditService) List(filter repository.AuditFilter) (*Page[model.AuditLog], error) {
	entries, total, err := s.auditRepo.List(filter)
	if err != nil {
		return nil, err
	}
	page, size := repository.NormalizePage(filter.Page, filter.PageSize)
	return &Page[model.AuditLog]{Items: entries, Total: total, Page: page, PageSize: size}, nil
}
