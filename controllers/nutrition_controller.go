package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
)

type NutritionController struct {
	Nutrition   *services.NutritionService
	Recognition *services.FoodRecognitionService
}

func NewNutritionController(n *services.NutritionService, r *services.FoodRecognitionService) *NutritionController {
	return &NutritionController{Nutrition: n, Recognition: r}
}

func (h *NutritionController) SearchFoods(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := h.Nutrition.SearchFoods(c.Request.Context(), c.Query("q"), c.Query("category"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *NutritionController) RecognizeFood(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	data, ok := readImage(c)
	if !ok {
		return
	}
	out, err := h.Recognition.Recognize(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *NutritionController) List(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	from, ok := optionalDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDateQuery(c, "to")
	if !ok {
		return
	}
	out, err := h.Nutrition.List(c.Request.Context(), uid, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *NutritionController) Create(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.NutritionLogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	log, err := h.Nutrition.Create(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

func (h *NutritionController) Get(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	log, err := h.Nutrition.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

func (h *NutritionController) Update(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.NutritionLogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	log, err := h.Nutrition.Update(c.Request.Context(), uid, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

func (h *NutritionController) Delete(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Nutrition.Delete(c.Request.Context(), uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "nutrition log deleted"})
}

// DailySummary defaults to today.
func (h *NutritionController) DailySummary(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	date, ok := optionalDateQuery(c, "date")
	if !ok {
		return
	}
	day := time.Now().UTC()
	if date != nil {
		day = *date
	}
	out, err := h.Nutrition.DailySummary(c.Request.Context(), uid, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
