package http

import (
	"io"
	"net/http"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settings *services.SettingsService
	auth     *services.AuthService
	tracker  *services.TrackerService
}

func NewSettingsHandler(settings *services.SettingsService, auth *services.AuthService, tracker *services.TrackerService) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		auth:     auth,
		tracker:  tracker,
	}
}

type credentialsRequest struct {
	Token string `json:"token"`
	DocID string `json:"docId"`
}

type dateRangeRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

type changePinRequest struct {
	Current string `json:"currentPin" binding:"required"`
	New     string `json:"newPin" binding:"required"`
}

type pinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

type clearRequest struct {
	Target string `json:"target" binding:"required"`
	Pin    string `json:"pin" binding:"required"`
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/settings")
	{
		group.GET("", h.Get)
		group.PUT("/credentials", h.SaveCredentials)
		group.PUT("/date-range", h.SaveDateRange)
		group.PUT("/pin", h.ChangePin)
		group.PUT("/preferences", h.SavePreferences)
		group.POST("/qr/export", h.ExportQR)
		group.POST("/qr/import", h.ImportQR)
		group.POST("/clear", h.Clear)
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SettingsHandler) SaveCredentials(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	warnings, err := h.settings.SaveCredentials(c.Request.Context(), req.Token, req.DocID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"warnings": warnings})
}

func (h *SettingsHandler) SaveDateRange(c *gin.Context) {
	var req dateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc := h.tracker.Location()
	start, err := domain.ParseDate(req.Start, loc)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := domain.ParseDate(req.End, loc)
	if err != nil {
		respondError(c, err)
		return
	}

	rng := domain.DateRange{Start: start, End: end}
	if err := h.settings.SaveDateRange(c.Request.Context(), rng); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.CalcTimeProgress(time.Now(), rng))
}

func (h *SettingsHandler) ChangePin(c *gin.Context) {
	var req changePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ChangePin(c.Request.Context(), req.Current, req.New); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SettingsHandler) SavePreferences(c *gin.Context) {
	var req services.PreferencesInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs, err := h.settings.SavePreferences(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ExportQR godoc
// @Summary  Build the device transfer payload, as JSON or ?format=png
// @Tags     settings
// @Accept   json
// @Produce  json,image/png
// @Security BearerAuth
// @Router   /settings/qr/export [post]
func (h *SettingsHandler) ExportQR(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := h.settings.ExportPayload(c.Request.Context(), req.Pin)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") != "png" {
		c.JSON(http.StatusOK, payload)
		return
	}
	png, err := h.settings.EncodeQR(payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *SettingsHandler) ImportQR(c *gin.Context) {
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
	c.JSON(http.StatusOK, res)
}

// Clear godoc
// @Summary  PIN-confirmed destructive action: remote, syllabus, progress or local
// @Tags     settings
// @Accept   json
// @Security BearerAuth
// @Success  204
// @Failure  400,401 {object} map[string]string
// @Router   /settings/clear [post]
func (h *SettingsHandler) Clear(c *gin.Context) {
	var req clearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := domain.ParseClearTarget(req.Target)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.settings.Clear(c.Request.Context(), target, req.Pin); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
