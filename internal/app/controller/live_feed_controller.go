package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

// LiveFeed attaches an admin connection to the event hub
type LiveFeed interface {
	Serve(w http.ResponseWriter, r *http.Request, adminID uint) error
	OnlineAdmins() int
}

type LiveFeedController struct {
	hub LiveFeed
}

func NewLiveFeedController(hub LiveFeed) *LiveFeedController {
	return &LiveFeedController{hub: hub}
}

// Connect upgrades to a websocket carrying slip, issue and billing run events
// GET /api/v1/admin/ws?token=
func (ctrl *LiveFeedController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	// the upgrader has already written the error reply
	if err := ctrl.hub.Serve(c.Writer, c.Request, actor.ID); err != nil {
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"admin_id": actor.ID,
			"error":    err.Error(),
		})
		return
	}

	log.Info("Admin joined live feed", map[string]interface{}{
		"admin_id": actor.ID,
		"online":   ctrl.hub.OnlineAdmins(),
	})
}
