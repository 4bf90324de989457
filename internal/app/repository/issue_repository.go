package repository

import (
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

type IssueFilter struct {
	UserID   *uint
	Status   model.IssueStatus
	Page     int
	PageSize int
}

type IssueRepository interface {
	Create(issue *model.IssueReport) error
	FindByID(id uint) (*model.IssueReport, error)
	List(filter IssueFilter) ([]model.IssueReport, int64, error)
	Update(issue *model.IssueReport) error
}

type issueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Create(issue *model.IssueReport) error {
	if err := r.db.Omit("User", "Address").Create(issue).Error; err != nil {
		logger.Error("Failed to create issue report", err, map[string]interface{}{
			"user_id": issue.UserID,
		})
		return err
	}
	return nil
}

func (r *issueRepository) FindByID(id uint) (*model.IssueReport, error) {
	var issue model.IssueReport
	if err := r.db.Preload("User").Preload("Address").First(&issue, id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) List(filter IssueFilter) ([]model.IssueReport, int64, error) {
	query := r.db.Model(&model.IssueReport{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count issue reports", err)
		return nil, 0, err
	}

	var issues []model.IssueReport
	if err := query.Preload("Address").
		Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC, id DESC").
		Find(&issues).Error; err != nil {
		logger.Error("Failed to list issue reports", err)
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *issueRepository) Update(issue *model.IssueReport) error {
	if err := r.db.Omit("User", "Address").Save(issue).Error; err != nil {
		logger.Error("Failed to update issue report", err, map[string]interface{}{
			"issue_id": issue.ID,
		})
		return err
	}
	return nil
}
