package http

import (
	"io"
	"net/http"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves the routes reachable without a session: first-run
// setup, QR import on a fresh device and PIN unlock.
type AuthHandler struct {
	auth     *services.AuthService
	settings *services.SettingsService
}

func NewAuthHandler(auth *services.AuthService, settings *services.SettingsService) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		settings: settings,
	}
}

type setupRequest struct {
	Pin            string `json:"pin" binding:"required,len=4,numeric"`
	Token          string `json:"token"`
	DocID          string `json:"docId"`
	RememberDevice bool   `json:"rememberDevice"`
}

type unlockRequest struct {
	Pin            string `json:"pin" binding:"required"`
	RememberDevice bool   `json:"rememberDevice"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/setup", h.Status)
	router.POST("/setup", h.Setup)
	router.POST("/setup/import", h.Import)
	router.POST("/auth/unlock", h.Unlock)
}

// Status godoc
// @Summary  Whether first-run setup has been completed
// @Tags     auth
// @Produce  json
// @Success  200 {object} map[string]bool
// @Router   /setup [get]
func (h *AuthHandler) Status(c *gin.Context) {
	done, err := h.auth.SetupCompleted(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setupCompleted": done})
}

// Setup godoc
// @Summary  Complete first-run setup and open a session
// @Tags     auth
// @Accept   json
// @Produce  json
// @Success  201 {object} sessionResponse
// @Failure  400,409 {object} map[string]string
// @Router   /setup [post]
func (h *AuthHandler) Setup(c *gin.Context) {
	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.CompleteSetup(c.Request.Context(), services.SetupInput{
		Pin:            req.Pin,
		Token:          req.Token,
		DocID:          req.DocID,
		RememberDevice: req.RememberDevice,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{Token: token})
}

// Import applies a QR payload before setup. The payload must carry a PIN.
func (h *AuthHandler) Import(c *gin.Context) {
	done, err := h.auth.SetupCompleted(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if done {
		c.JSON(http.StatusConflict, gin.H{"error": "setup already completed, import from settings"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}

	res, err := h.settings.ImportPayload(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Unlock godoc
// @Summary  Verify the PIN and open a session
// @Tags     auth
// @Accept   json
// @Produce  json
// @Success  200 {object} sessionResponse
// @Failure  401,409 {object} map[string]string
// @Router   /auth/unlock [post]
func (h *AuthHandler) Unlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Unlock(c.Request.Context(), req.Pin, req.RememberDevice)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{Token: token})
}
