package service

import (
	"context"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/line"
)

// Actor is the admin performing a back-office operation
type Actor struct {
	ID   uint
	Role model.AdminRole
}

// EventPublisher pushes live events to connected admins
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

// LinePusher sends a LINE text message to a user id
type LinePusher interface {
	PushText(ctx context.Context, to, text string) error
}

// IDTokenVerifier checks a LIFF ID token with LINE
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*line.IDTokenClaims, error)
}

// Page is one page of a list result
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func publish(events EventPublisher, eventType string, data interface{}) {
	if events == nil {
		return
	}
	events.Publish(eventType, data)
}
