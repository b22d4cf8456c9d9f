package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
)

type NotificationController struct {
	Notifications *services.NotificationService
	Push          *services.PushService
	RT            *services.RealtimeHub
	upgrader      websocket.Upgrader
}

func NewNotificationController(n *services.NotificationService, p *services.PushService, rt *services.RealtimeHub, allowedOrigins []string) *NotificationController {
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &NotificationController{
		Notifications: n,
		Push:          p,
		RT:            rt,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

func (h *NotificationController) List(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	out, err := h.Notifications.List(c.Request.Context(), uid, c.Query("unread") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *NotificationController) MarkRead(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *NotificationController) RegisterDevice(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.RegisterDeviceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	dev, err := h.Push.RegisterDevice(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"endpoint_arn": dev.EndpointARN})
}

func (h *NotificationController) Toggle(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}
	if err := h.Push.SetEnabled(c.Request.Context(), uid, in.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notifications updated", "enabled": in.Enabled})
}

// Stream upgrades to a websocket and keeps it registered until the client leaves.
func (h *NotificationController) Stream(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &services.WSClient{UserID: uid, Conn: conn}
	h.RT.Register(cl)

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(25 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Ping(); err != nil {
					h.RT.Unregister(cl)
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.RT.Unregister(cl)
			return
		}
	}
}
