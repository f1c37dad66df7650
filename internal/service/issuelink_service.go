package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"taskmaster/internal/apperr"
	"taskmaster/internal/issuetracker"
	"taskmaster/internal/model"
	"taskmaster/internal/policy"
	"taskmaster/internal/repository"
)

// IssueFetcher reads one issue from the external tracker.
type IssueFetcher interface {
	FetchIssue(ctx context.Context, issueURL string) (*issuetracker.Issue, error)
}

var _ IssueFetcher = (*issuetracker.Client)(nil)

type IssueLinkService struct {
	tasks   repository.TaskRepositoryInterface
	links   repository.IssueLinkRepositoryInterface
	fetcher IssueFetcher
	group   singleflight.Group
	logger  *slog.Logger
}

func NewIssueLinkService(
	tasks repository.TaskRepositoryInterface,
	links repository.IssueLinkRepositoryInterface,
	fetcher IssueFetcher,
	logger *slog.Logger,
) *IssueLinkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueLinkService{tasks: tasks, links: links, fetcher: fetcher, logger: logger}
}

// LinkIssue fetches issueURL and stores it as the task's issue link,
// replacing any previous one. A failed fetch leaves the stored link alone.
func (s *IssueLinkService) LinkIssue(ctx context.Context, actor policy.Actor, taskID uuid.UUID, issueURL string) (*model.IssueLink, error) {
	if issueURL == "" {
		return nil, &apperr.ValidationError{Fields: map[string]string{"issue_url": "is required"}}
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateTask(actor, task.AssignedUserID) {
		s.logger.WarnContext(ctx, "issue link denied", "task_id", taskID, "actor_id", actor.ID)
		return nil, fmt.Errorf("link issue to task %s: %w", taskID, apperr.ErrUnauthorized)
	}

	// Identical requests in flight share one fetch and one write.
	key := taskID.String() + " " + issueURL
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.sync(ctx, taskID, issueURL)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "issue link request coalesced", "task_id", taskID)
	}
	link := *v.(*model.IssueLink)
	return &link, nil
}

func (s *IssueLinkService) sync(ctx context.Context, taskID uuid.UUID, issueURL string) (*model.IssueLink, error) {
	issue, err := s.fetcher.FetchIssue(ctx, issueURL)
	if err != nil {
		return nil, fmt.Errorf("link issue to task %s: %w", taskID, err)
	}

	link := &model.IssueLink{
		TaskID:         taskID,
		IssueURL:       issueURL,
		IssueNumber:    issue.Number,
		IssueTitle:     issue.Title,
		IssueState:     model.ParseIssueState(issue.State),
		IssueCreatedAt: issue.CreatedAt,
		IssueUpdatedAt: issue.UpdatedAt,
	}
	if err := s.links.Upsert(ctx, link); err != nil {
		return nil, fmt.Errorf("store issue link: %w", err)
	}
	s.logger.InfoContext(ctx, "issue linked",
		"task_id", taskID, "issue_number", link.IssueNumber, "state", link.IssueState)
	return link, nil
}

// GetLink returns the issue linked to a task the actor can read.
func (s *IssueLinkService) GetLink(ctx context.Context, actor policy.Actor, taskID uuid.UUID) (*model.IssueLink, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadTask(actor, task.AssignedUserID) {
		return nil, fmt.Errorf("read issue link of task %s: %w", taskID, apperr.ErrUnauthorized)
	}
	return s.links.GetByTaskID(ctx, taskID)
}
