package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timeline-service/internal/model"
	"timeline-service/internal/repository"
	"timeline-service/internal/service/notify"
	"timeline-service/internal/service/timeline"
)

const dateLayout = "2006-01-02"

type TimelineHandler struct {
	service *timeline.Service
	logger  *zap.Logger
}

func NewTimelineHandler(service *timeline.Service, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{service: service, logger: logger}
}

// actingUser extracts the acting user id supplied by the external session
// layer. Authorization happened upstream; this core only records who acted.
func actingUser(c *gin.Context) (int, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header required"})
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-User-ID header"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	var validationErr *timeline.ValidationError
	var transitionErr *timeline.InvalidTransitionError
	var dependencyErr *timeline.InvalidDependencyError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error()})
	case errors.As(err, &dependencyErr):
		c.JSON(http.StatusConflict, gin.H{"error": dependencyErr.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "milestone was modified concurrently, retry"})
	case errors.Is(err, timeline.ErrGraphCorrupted):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dependency data is inconsistent, contact an operator"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type createMilestoneRequest struct {
	DocumentID   int    `json:"document_id"`
	DocumentType string `json:"document_type"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	StartDate    string `json:"start_date"`
	DueDate      string `json:"due_date"`
	AssignedTo   *int   `json:"assigned_to"`
	Notes        string `json:"notes"`
}

func (h *TimelineHandler) CreateMilestone(c *gin.Context) {
	actorID, ok := actingUser(c)
	if !ok {
		return
	}

	var req createMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("CreateMilestone: malformed request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	in := timeline.CreateMilestoneInput{
		Document: model.DocumentRef{
			ID:   req.DocumentID,
			Type: model.DocumentType(req.DocumentType),
		},
		Name:        req.Name,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		AssignedTo:  req.AssignedTo,
		Notes:       req.Notes,
	}

	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
			return
		}
		in.StartDate = &start
	}
	if req.DueDate != "" {
		due, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date, expected YYYY-MM-DD"})
			return
		}
		in.DueDate = due
	}

	m, err := h.service.CreateMilestone(c.Request.Context(), actorID, in)
	if err != nil {
		var dispatchErr *notify.DispatchError
		if errors.As(err, &dispatchErr) && m != nil {
			// Milestone was created; the assignment notification is advisory.
			c.JSON(http.StatusCreated, gin.H{"milestone": m, "notification_failed": true})
			return
		}
		h.logger.Warn("CreateMilestone failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"milestone": m})
}

func (h *TimelineHandler) GetTimeline(c *gin.Context) {
	docType, ok := model.ParseDocumentType(c.Param("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown document type"})
		return
	}
	docID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	today := time.Now()
	if raw := c.Query("today"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid today, expected YYYY-MM-DD"})
			return
		}
		today = parsed
	}

	view, err := h.service.Timeline(c.Request.Context(), model.DocumentRef{ID: docID, Type: docType}, today)
	if err != nil {
		h.logger.Error("GetTimeline failed",
			zap.Int("document_id", docID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type transitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *TimelineHandler) TransitionStatus(c *gin.Context) {
	actorID, ok := actingUser(c)
	if !ok {
		return
	}

	milestoneID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone id"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	m, err := h.service.Transition(c.Request.Context(), actorID, milestoneID, model.Status(req.Status), req.Note)
	if err != nil {
		var dispatchErr *notify.DispatchError
		if errors.As(err, &dispatchErr) && m != nil {
			// The transition is committed; only the notification failed.
			c.JSON(http.StatusOK, gin.H{"milestone": m, "notification_failed": true})
			return
		}
		h.logger.Warn("TransitionStatus failed",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestone": m})
}

type dependencyRequest struct {
	DependencyID *int `json:"dependency_id"`
}

func (h *TimelineHandler) SetDependency(c *gin.Context) {
	actorID, ok := actingUser(c)
	if !ok {
		return
	}

	milestoneID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone id"})
		return
	}

	var req dependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	m, err := h.service.SetDependency(c.Request.Context(), actorID, milestoneID, req.DependencyID)
	if err != nil {
		h.logger.Warn("SetDependency failed",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestone": m})
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *TimelineHandler) AddComment(c *gin.Context) {
	actorID, ok := actingUser(c)
	if !ok {
		return
	}

	milestoneID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone id"})
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), actorID, milestoneID, req.Text)
	if err != nil {
		var dispatchErr *notify.DispatchError
		if errors.As(err, &dispatchErr) && comment != nil {
			c.JSON(http.StatusCreated, gin.H{"comment": comment, "notification_failed": true})
			return
		}
		h.logger.Warn("AddComment failed",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *TimelineHandler) ListComments(c *gin.Context) {
	milestoneID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone id"})
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), milestoneID)
	if err != nil {
		h.logger.Error("ListComments failed",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}
