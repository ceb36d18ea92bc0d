package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lead-intake/internal/common/auth"
	apperrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/feed"
	"lead-intake/internal/models"
)

type Workflow interface {
	Find(ctx context.Context, id string) (models.Record, error)
	Transition(ctx context.Context, id, status, notes string) (models.Record, error)
}

type FeedLister interface {
	List(ctx context.Context, q feed.Query) (*feed.Page, error)
}

type AdminHandler struct {
	workflow Workflow
	feed     FeedLister
	logger   logger.Logger
}

func NewAdminHandler(wf Workflow, fl FeedLister, log logger.Logger) *AdminHandler {
	return &AdminHandler{
		workflow: wf,
		feed:     fl,
		logger:   log.WithFields(map[string]interface{}{"component": "admin-handler"}),
	}
}

type ListApplicationsRequest struct {
	Status   string `form:"status"`
	Category string `form:"category" binding:"omitempty,oneof=loan insurance consultancy"`
	Search   string `form:"search" binding:"max=200"`
	Source   string `form:"source"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=2000"`
}

func (h *AdminHandler) List(c *gin.Context) {
	var req ListApplicationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(apperrors.NewInvalidRequestError("invalid query parameters: "+err.Error(), err))
		return
	}

	page, err := h.feed.List(c.Request.Context(), feed.Query{
		Status:   strings.TrimSpace(req.Status),
		Category: models.Category(req.Category),
		Search:   strings.TrimSpace(req.Search),
		Source:   req.Source,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		c.Error(apperrors.NewQueryExecutionFailedError("feed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"applications": page.Rows,
		"pagination":   page.Pagination,
		"stats":        page.Stats,
	})
}

func (h *AdminHandler) Detail(c *gin.Context) {
	rec, err := h.workflow.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	doc, err := withType(rec)
	if err != nil {
		c.Error(apperrors.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": doc})
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequestError("status is required", err))
		return
	}

	id := c.Param("id")
	updated, err := h.workflow.Transition(c.Request.Context(), id, req.Status, req.Notes)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Info("status changed by staff", map[string]interface{}{
		"id":     id,
		"status": req.Status,
		"staff":  c.GetString(auth.ContextKeyStaffEmail),
	})

	doc, err := withType(updated)
	if err != nil {
		c.Error(apperrors.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": doc})
}

// withType flattens a record into a JSON object and adds the category as "type".
func withType(rec models.Record) (map[string]interface{}, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc["type"] = string(rec.RecordCategory())
	return doc, nil
}
