package handler

import (
	"context"
	"net/http"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/policy"
	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type IssueLinkService interface {
	LinkIssue(ctx context.Context, actor policy.Actor, taskID uuid.UUID, issueURL string) (*model.IssueLink, error)
	GetLink(ctx context.Context, actor policy.Actor, taskID uuid.UUID) (*model.IssueLink, error)
}

var _ IssueLinkService = (*service.IssueLinkService)(nil)

type IssueLinkHandler struct {
	links IssueLinkService
}

func NewIssueLinkHandler(links IssueLinkService) *IssueLinkHandler {
	return &IssueLinkHandler{links: links}
}

type LinkIssueRequest struct {
	IssueURL string `json:"issue_url" binding:"required,url"`
}

type IssueLinkResponse struct {
	ID             string     `json:"id"`
	TaskID         string     `json:"task_id"`
	IssueURL       string     `json:"issue_url"`
	IssueNumber    string     `json:"issue_number"`
	IssueTitle     string     `json:"issue_title"`
	IssueState     string     `json:"issue_state"`
	IssueCreatedAt time.Time  `json:"issue_created_at"`
	IssueUpdatedAt *time.Time `json:"issue_updated_at,omitempty"`
}

func toIssueLinkResponse(l *model.IssueLink) IssueLinkResponse {
	return IssueLinkResponse{
		ID:             l.ID.String(),
		TaskID:         l.TaskID.String(),
		IssueURL:       l.IssueURL,
		IssueNumber:    l.IssueNumber,
		IssueTitle:     l.IssueTitle,
		IssueState:     string(l.IssueState),
		IssueCreatedAt: l.IssueCreatedAt,
		IssueUpdatedAt: l.IssueUpdatedAt,
	}
}

// Link godoc
// @Summary      Fetch an external issue and link it to a task
// @Tags         Issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        request body LinkIssueRequest true "Issue URL"
// @Success      200 {object} IssueLinkResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /tasks/{id}/issue [post]
func (h *IssueLinkHandler) Link(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := idParam(c, "task")
	if !ok {
		return
	}

	var req LinkIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid issue_url is required"})
		return
	}

	link, err := h.links.LinkIssue(c.Request.Context(), actor, taskID, req.IssueURL)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toIssueLinkResponse(link))
}

// Get godoc
// @Summary      Get the issue linked to a task
// @Tags         Issues
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {object} IssueLinkResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tasks/{id}/issue [get]
func (h *IssueLinkHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := idParam(c, "task")
	if !ok {
		return
	}

	link, err := h.links.GetLink(c.Request.Context(), actor, taskID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toIssueLinkResponse(link))
}
