package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/metrics"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Message is one resident notification
type Message struct {
	Type    model.NotificationType
	Title   string
	Content string
	BillID  *uint
	SlipID  *uint
	IssueID *uint
}

type NotificationService interface {
	Notify(ctx context.Context, user *model.User, msg Message)
	List(userID uint, isRead *bool, page, pageSize int) (*Page[model.Notification], error)
	UnreadCount(userID uint) (int64, error)
	MarkAsRead(userID, id uint) error
	MarkAllAsRead(userID uint) error
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	pusher    LinePusher
	metrics   *metrics.Metrics
}

// NewNotificationService builds the inbox. A nil pusher keeps messages in the inbox only.
func NewNotificationService(notifRepo repository.NotificationRepository, pusher LinePusher, m *metrics.Metrics) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		pusher:    pusher,
		metrics:   m,
	}
}

// Notify stores the message and mirrors it to LINE. It never fails the caller.
func (s *notificationService) Notify(ctx context.Context, user *model.User, msg Message) {
	if user == nil {
		return
	}

	n := &model.Notification{
		UserID:         user.ID,
		Type:           msg.Type,
		Title:          msg.Title,
		Content:        msg.Content,
		RelatedBillID:  msg.BillID,
		RelatedSlipID:  msg.SlipID,
		RelatedIssueID: msg.IssueID,
	}
	if err := s.notifRepo.CreateNotification(n); err != nil {
		logger.Error("Failed to store notification", err, map[string]interface{}{
			"user_id": user.ID,
			"type":    msg.Type,
		})
		return
	}

	if s.pusher == nil || user.LineUserID == "" {
		s.metrics.LinePushed("skipped")
		return
	}

	text := fmt.Sprintf("%s\n%s", msg.Title, msg.Content)
	if err := s.pusher.PushText(ctx, user.LineUserID, text); err != nil {
		s.metrics.LinePushed("failed")
		logger.Warn("LINE push failed", map[string]interface{}{
			"user_id": user.ID,
			"type":    msg.Type,
			"error":   err.Error(),
		})
		return
	}

	s.metrics.LinePushed("sent")
	if err := s.notifRepo.MarkPushed(n.ID); err != nil {
		logger.Warn("Failed to mark notification pushed", map[string]interface{}{
			"notification_id": n.ID,
			"error":           err.Error(),
		})
	}
}

func (s *notificationService) List(userID uint, isRead *bool, page, pageSize int) (*Page[model.Notification], error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	items, total, err := s.notifRepo.GetNotifications(userID, isRead, pageSize, (page-1)*pageSize)
	if err != nil {
		logger.Error("Failed to list notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &Page[model.Notification]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *notificationService) UnreadCount(userID uint) (int64, error) {
	return s.notifRepo.GetUnreadCount(userID)
}

func (s *notificationService) MarkAsRead(userID, id uint) error {
	n, err := s.notifRepo.GetNotificationByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	// someone else's notification looks the same as a missing one
	if n.UserID != userID {
		return ErrNotificationNotFound
	}
	return s.notifRepo.MarkAsRead(id)
}

func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.notifRepo.MarkAllAsRead(userID)
}
