package http

import (
	"net/http"
	"strconv"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	sync *services.SyncService
}

func NewSyncHandler(sync *services.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

func (h *SyncHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/sync")
	{
		group.GET("/status", h.Status)
		group.POST("/push", h.Push)
		group.POST("/pull", h.Pull)
		group.POST("/create", h.Create)
	}
}

func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Status(c.Request.Context()))
}

// Push godoc
// @Summary  Upload local state to the remote document
// @Tags     sync
// @Security BearerAuth
// @Success  200 {object} domain.SyncStatus
// @Failure  401,412,502 {object} map[string]string
// @Router   /sync/push [post]
func (h *SyncHandler) Push(c *gin.Context) {
	if err := h.sync.Push(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sync.Status(c.Request.Context()))
}

// Pull godoc
// @Summary  Download the remote document; ?force=true adopts it regardless of age
// @Tags     sync
// @Security BearerAuth
// @Param    force query bool false "adopt even if older"
// @Router   /sync/pull [post]
func (h *SyncHandler) Pull(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	adopted, err := h.sync.Pull(c.Request.Context(), force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"adopted": adopted,
		"status":  h.sync.Status(c.Request.Context()),
	})
}

// Create pulls when a document id is configured, otherwise creates one.
func (h *SyncHandler) Create(c *gin.Context) {
	created, err := h.sync.PullOrCreate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"created": created,
		"status":  h.sync.Status(c.Request.Context()),
	})
}
