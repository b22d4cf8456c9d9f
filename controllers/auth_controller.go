package controllers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
	"github.com/strawberrymilktea0604/HealthSync-sub001/services"
	"github.com/strawberrymilktea0604/HealthSync-sub001/utils"
)

const oauthStateCookie = "oauth_state"

type AuthController struct {
	Auth         *services.AuthService
	Google       utils.GoogleOAuth // nil when Google sign-in is not configured
	FrontendURL  string
	SecureCookie bool
}

func NewAuthController(auth *services.AuthService, google utils.GoogleOAuth, frontendURL string, secureCookie bool) *AuthController {
	return &AuthController{Auth: auth, Google: google, FrontendURL: frontendURL, SecureCookie: secureCookie}
}

func (h *AuthController) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.Auth.Register(c.Request.Context(), in, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registration successful", "user": user})
}

func (h *AuthController) Login(c *gin.Context) {
	var in services.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), in, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthController) ForgotPassword(c *gin.Context) {
	var in struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the email is registered, a reset code has been sent"})
}

func (h *AuthController) ResetPassword(c *gin.Context) {
	var in services.ResetPasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *AuthController) ChangePassword(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.ChangePasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Auth.ChangePassword(c.Request.Context(), uid, in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *AuthController) Me(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	me, err := h.Auth.Me(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

func (h *AuthController) GoogleLogin(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not enabled"})
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/api/auth/google", "", h.SecureCookie, true)
	c.Redirect(http.StatusTemporaryRedirect, h.Google.AuthCodeURL(state))
}

// GoogleCallback always ends in a redirect to the frontend, carrying either the
// session or an error in the query string.
func (h *AuthController) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not enabled"})
		return
	}
	cookie, _ := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth/google", "", h.SecureCookie, true)

	if e := c.Query("error"); e != "" {
		h.redirectFrontend(c, url.Values{"error": {e}})
		return
	}
	if state := c.Query("state"); state == "" || state != cookie {
		h.redirectFrontend(c, url.Values{"error": {"invalid_state"}})
		return
	}

	profile, err := h.Google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		logger.Warn("google exchange failed", zap.Error(err))
		h.redirectFrontend(c, url.Values{"error": {"google_exchange_failed"}})
		return
	}
	res, err := h.Auth.LoginWithGoogle(c.Request.Context(), profile, c.ClientIP())
	if err != nil {
		logger.Warn("google login rejected", zap.String("email", profile.Email), zap.Error(err))
		h.redirectFrontend(c, url.Values{"error": {err.Error()}})
		return
	}
	h.redirectFrontend(c, url.Values{
		"token":    {res.Token},
		"userId":   {strconv.FormatUint(uint64(res.User.ID), 10)},
		"email":    {res.User.Email},
		"fullName": {res.User.FullName},
	})
}

func (h *AuthController) redirectFrontend(c *gin.Context, q url.Values) {
	c.Redirect(http.StatusFound, h.FrontendURL+"/oauth/callback?"+q.Encode())
}
