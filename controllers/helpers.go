package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
	"github.com/strawberrymilktea0604/HealthSync-sub001/middlewares"
	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

// respondError maps service error kinds to status codes. Unknown errors are
// logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidOperation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get(middlewares.CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// currentUser aborts with 401 when the request carries no user.
func currentUser(c *gin.Context) (uint, bool) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return uid, ok
}

func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// optionalDateQuery returns nil when the parameter is absent.
func optionalDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	t, err := services.ParseDate(s)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return &t, true
}

// readImage takes the "file" multipart field, or a JSON body {"image": "<data url>"}.
func readImage(c *gin.Context) ([]byte, bool) {
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > utils.MaxImageBytes {
			badRequest(c, "image exceeds 5 MiB")
			return nil, false
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "cannot read upload")
			return nil, false
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, utils.MaxImageBytes+1))
		if err != nil {
			badRequest(c, "cannot read upload")
			return nil, false
		}
		return data, true
	}

	var body struct {
		Image string `json:"image" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "expected multipart field 'file' or JSON field 'image'")
		return nil, false
	}
	data, err := utils.DecodeDataURL(body.Image)
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	return data, true
}
