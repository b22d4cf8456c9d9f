package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
)

type ProfileController struct {
	Profiles *services.ProfileService
}

func NewProfileController(p *services.ProfileService) *ProfileController {
	return &ProfileController{Profiles: p}
}

func (h *ProfileController) Get(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	p, err := h.Profiles.Get(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileController) Update(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.Profiles.Update(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileController) UploadAvatar(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	data, ok := readImage(c)
	if !ok {
		return
	}
	url, err := h.Profiles.UploadAvatar(c.Request.Context(), uid, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
