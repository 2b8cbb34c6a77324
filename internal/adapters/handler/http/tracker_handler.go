package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/gin-gonic/gin"
)

type TrackerHandler struct {
	tracker *services.TrackerService
	export  *services.ExportService
	now     func() time.Time
}

func NewTrackerHandler(tracker *services.TrackerService, export *services.ExportService) *TrackerHandler {
	return &TrackerHandler{
		tracker: tracker,
		export:  export,
		now:     time.Now,
	}
}

// SetClock replaces the wall clock, for tests.
func (h *TrackerHandler) SetClock(now func() time.Time) {
	h.now = now
}

type chapterRequest struct {
	Subject string `json:"subject" binding:"required"`
	Paper   string `json:"paper" binding:"required"`
	ID      string `json:"id" binding:"required"`
}

func (r chapterRequest) ref() domain.ChapterRef {
	return domain.ChapterRef{Subject: r.Subject, Paper: r.Paper, ID: r.ID}
}

type noteRequest struct {
	chapterRequest
	Note string `json:"note"`
}

type taskToggleRequest struct {
	Date   string `json:"date"`
	TaskID string `json:"taskId"`
}

func (h *TrackerHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.Dashboard)
	router.GET("/schedule", h.Schedule)
	router.GET("/history", h.History)
	router.POST("/tasks/toggle", h.ToggleTask)

	syllabus := router.Group("/syllabus")
	{
		syllabus.GET("", h.Syllabus)
		syllabus.POST("/toggle", h.ToggleChapter)
		syllabus.PUT("/note", h.UpdateNote)
	}

	router.GET("/export", h.Export)
}

// Dashboard godoc
// @Summary  Progress bars, current task and sync status
// @Tags     tracker
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} services.Dashboard
// @Router   /dashboard [get]
func (h *TrackerHandler) Dashboard(c *gin.Context) {
	d, err := h.tracker.Dashboard(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Schedule returns the expanded schedule for ?date=YYYY-MM-DD, today by default.
func (h *TrackerHandler) Schedule(c *gin.Context) {
	date := h.now()
	if s := c.Query("date"); s != "" {
		parsed, err := domain.ParseDate(s, h.tracker.Location())
		if err != nil {
			respondError(c, err)
			return
		}
		date = parsed
	}

	view, err := h.tracker.Schedule(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TrackerHandler) History(c *gin.Context) {
	days := services.DefaultHistoryDays
	if s := c.Query("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 366 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 366"})
			return
		}
		days = n
	}

	view, err := h.tracker.History(c.Request.Context(), h.now(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ToggleTask flips a daily task. The date defaults to today.
func (h *TrackerHandler) ToggleTask(c *gin.Context) {
	var req taskToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Date == "" {
		req.Date = h.now().In(h.tracker.Location()).Format(domain.DateLayout)
	}

	done, err := h.tracker.ToggleDailyTask(c.Request.Context(), req.Date, req.TaskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": req.Date, "taskId": req.TaskID, "done": done})
}

func (h *TrackerHandler) Syllabus(c *gin.Context) {
	tree, err := h.tracker.Syllabus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chapters": tree,
		"progress": domain.CalcSyllabusProgress(tree),
	})
}

func (h *TrackerHandler) ToggleChapter(c *gin.Context) {
	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done, err := h.tracker.ToggleChapter(c.Request.Context(), req.ref())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.ID, "done": done})
}

func (h *TrackerHandler) UpdateNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tracker.UpdateNote(c.Request.Context(), req.ref(), req.Note); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export godoc
// @Summary  Download progress as JSON or CSV
// @Tags     tracker
// @Produce  json,text/csv
// @Param    format query string false "json or csv"
// @Security BearerAuth
// @Router   /export [get]
func (h *TrackerHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", services.FormatJSON)
	if format != services.FormatJSON && format != services.FormatCSV {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or csv"})
		return
	}

	var buf bytes.Buffer
	if err := h.export.Write(c.Request.Context(), &buf, format, h.now()); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.FileName(format)+`"`)
	c.Data(http.StatusOK, services.ContentType(format), buf.Bytes())
}
