package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
)

type ChatController struct {
	Chat *services.ChatService
}

func NewChatController(s *services.ChatService) *ChatController {
	return &ChatController{Chat: s}
}

func (h *ChatController) Ask(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.AskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	ex, err := h.Chat.Ask(c.Request.Context(), uid, in.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

func (h *ChatController) History(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.Chat.History(c.Request.Context(), uid, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *ChatController) ClearHistory(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.Chat.ClearHistory(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
