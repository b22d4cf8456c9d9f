package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
)

type GoalController struct {
	Goals *services.GoalService
}

func NewGoalController(g *services.GoalService) *GoalController {
	return &GoalController{Goals: g}
}

// List accepts ?status= with a derived status (completed, overdue, upcoming, in-progress).
func (h *GoalController) List(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	goals, err := h.Goals.List(c.Request.Context(), uid, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *GoalController) Create(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.GoalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	g, err := h.Goals.Create(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *GoalController) Get(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	g, err := h.Goals.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GoalController) Update(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.GoalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	g, err := h.Goals.Update(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GoalController) Delete(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Goals.Delete(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "goal deleted"})
}

func (h *GoalController) AddProgress(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.ProgressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	rec, goal, err := h.Goals.AddProgress(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": rec, "goal": goal})
}

func (h *GoalController) ListProgress(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	recs, err := h.Goals.ListProgress(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *GoalController) DeleteProgress(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	recordID, ok := idParam(c, "recordId")
	if !ok {
		return
	}
	if err := h.Goals.DeleteProgress(c.Request.Context(), uid, id, recordID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "progress record deleted"})
}
