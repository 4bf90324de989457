package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/websocket"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrIssueNotFound          = errors.New("issue not found")
	ErrIssueTitleRequired     = errors.New("issue title is required")
	ErrInvalidIssueTransition = errors.New("invalid issue status transition")
)

type IssueInput struct {
	AddressID *uint
	Title     string
	Detail    string
}

type IssueService interface {
	CreateIssue(userID uint, input IssueInput) (*model.IssueReport, error)
	ListMyIssues(userID uint, page, pageSize int) (*Page[model.IssueReport], error)
	ListIssues(filter repository.IssueFilter) (*Page[model.IssueReport], error)
	AcknowledgeIssue(ctx context.Context, actor Actor, id uint, note string) (*model.IssueReport, error)
	ResolveIssue(ctx context.Context, actor Actor, id uint, note string) (*model.IssueReport, error)
}

type issueService struct {
	issueRepo     repository.IssueRepository
	addressRepo   repository.AddressRepository
	audit         AuditService
	notifications NotificationService
	events        EventPublisher
}

func NewIssueService(
	issueRepo repository.IssueRepository,
	addressRepo repository.AddressRepository,
	audit AuditService,
	notifications NotificationService,
	events EventPublisher,
) IssueService {
	return &issueService{
		issueRepo:     issueRepo,
		addressRepo:   addressRepo,
		audit:         audit,
		notifications: notifications,
		events:        events,
	}
}

func (s *issueService) CreateIssue(userID uint, input IssueInput) (*model.IssueReport, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrIssueTitleRequired
	}

	if input.AddressID != nil {
		address, err := s.addressRepo.FindByID(*input.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAddressNotFound
			}
			return nil, err
		}
		if address.UserID != userID {
			return nil, ErrUnauthorizedAccess
		}
	}

	issue := &model.IssueReport{
		UserID:    userID,
		AddressID: input.AddressID,
		Title:     title,
		Detail:    strings.TrimSpace(input.Detail),
		Status:    model.IssueStatusOpen,
	}
	if err := s.issueRepo.Create(issue); err != nil {
		return nil, err
	}

	publish(s.events, websocket.EventIssueReported, map[string]interface{}{
		"issue_id": issue.ID,
		"user_id":  userID,
		"title":    issue.Title,
	})
	logger.Info("Issue reported", map[string]interface{}{
		"issue_id": issue.ID,
		"user_id":  userID,
	})
	return issue, nil
}

func (s *issueService) ListMyIssues(userID uint, page, pageSize int) (*Page[model.IssueReport], error) {
	return s.ListIssues(repository.IssueFilter{UserID: &userID, Page: page, PageSize: pageSize})
}

func (s *issueService) ListIssues(filter repository.IssueFilter) (*Page[model.IssueReport], error) {
	issues, total, err := s.issueRepo.List(filter)
	if err != nil {
		return nil, err
	}
	page, size := repository.NormalizePage(filter.Page, filter.PageSize)
	return &Page[model.IssueReport]{Items: issues, Total: total, Page: page, PageSize: size}, nil
}

func (s *issueService) AcknowledgeIssue(ctx context.Context, actor Actor, id uint, note string) (*model.IssueReport, error) {
	return s.transition(ctx, actor, id, model.IssueStatusAcknowledged, note)
}

func (s *issueService) ResolveIssue(ctx context.Context, actor Actor, id uint, note string) (*model.IssueReport, error) {
	return s.transition(ctx, actor, id, model.IssueStatusResolved, note)
}

func (s *issueService) transition(ctx context.Context, actor Actor, id uint, to model.IssueStatus, note string) (*model.IssueReport, error) {
	issue, err := s.issueRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	if !model.CanTransitionIssue(issue.Status, to) {
		return nil, ErrInvalidIssueTransition
	}

	now := time.Now()
	from := issue.Status
	issue.Status = to
	if note = strings.TrimSpace(note); note != "" {
		issue.AdminNote = note
	}
	action := model.AuditIssueResolved
	msg := issueResolvedMessage(issue)
	if to == model.IssueStatusAcknowledged {
		issue.AcknowledgedBy = &actor.ID
		issue.AcknowledgedAt = &now
		action = model.AuditIssueAcked
		msg = issueAcknowledgedMessage(issue)
	} else {
		issue.ResolvedAt = &now
		if issue.AcknowledgedBy == nil {
			issue.AcknowledgedBy = &actor.ID
			issue.AcknowledgedAt = &now
		}
	}

	if err := s.issueRepo.Update(issue); err != nil {
		return nil, err
	}

	s.audit.Record(actor, action, "issue", issue.ID, map[string]interface{}{
		"from": from,
		"to":   to,
	})
	s.notifications.Notify(ctx, issue.User, msg)

	logger.Info("Issue status changed", map[string]interface{}{
		"issue_id": issue.ID,
		"from":     from,
		"to":       to,
		"admin_id": actor.ID,
	})
	return issue, nil
}
