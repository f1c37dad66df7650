package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/apperr"
	"taskmaster/internal/issuetracker"
	"taskmaster/internal/model"
	"taskmaster/internal/policy"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

const issueURL = "https://tracker.example/repos/acme/app/issues/42"

type linkFixture struct {
	svc     *service.IssueLinkService
	tasks   *MockTaskRepository
	links   *MockIssueLinkRepository
	fetcher *MockIssueFetcher
	owner   policy.Actor
	task    *model.Task
}

func setupIssueLinkService() *linkFixture {
	f := &linkFixture{
		tasks:   new(MockTaskRepository),
		links:   new(MockIssueLinkRepository),
		fetcher: new(MockIssueFetcher),
		owner:   userActor(),
	}
	f.task = &model.Task{ID: uuid.New(), Title: "Fix", Description: "d", Status: model.TaskStatusPending, AssignedUserID: f.owner.ID}
	f.svc = service.NewIssueLinkService(f.tasks, f.links, f.fetcher, nil)
	return f
}

// upsertInto makes the link mock behave like a one-row-per-task table.
func (f *linkFixture) upsertInto(stored map[uuid.UUID]*model.IssueLink) {
	f.links.On("Upsert", mock.Anything, mock.AnythingOfType("*model.IssueLink")).
		Run(func(args mock.Arguments) {
			link := args.Get(1).(*model.IssueLink)
			if prev, ok := stored[link.TaskID]; ok {
				link.ID = prev.ID
			} else {
				link.ID = uuid.New()
			}
			row := *link
			stored[link.TaskID] = &row
		}).
		Return(nil)
}

func TestIssueLinkService_LinkIssue_StoresFetchedIssue(t *testing.T) {
	f := setupIssueLinkService()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil)
	f.fetcher.On("FetchIssue", mock.Anything, issueURL).Return(&issuetracker.Issue{
		Number: "42", Title: "Crash on save", State: "closed", CreatedAt: created,
	}, nil)
	stored := map[uuid.UUID]*model.IssueLink{}
	f.upsertInto(stored)

	link, err := f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, issueURL)

	require.NoError(t, err)
	assert.Equal(t, f.task.ID, link.TaskID)
	assert.Equal(t, "42", link.IssueNumber)
	assert.Equal(t, model.IssueStateClosed, link.IssueState)
	assert.Equal(t, created, link.IssueCreatedAt)
	assert.Equal(t, issueURL, link.IssueURL)
}

func TestIssueLinkService_LinkIssue_UnknownStateIsOpen(t *testing.T) {
	f := setupIssueLinkService()
	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil)
	f.fetcher.On("FetchIssue", mock.Anything, issueURL).
		Return(&issuetracker.Issue{Number: "42", Title: "T", State: "xyz"}, nil)
	f.upsertInto(map[uuid.UUID]*model.IssueLink{})

	link, err := f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, issueURL)

	require.NoError(t, err)
	assert.Equal(t, model.IssueStateOpen, link.IssueState)
}

func TestIssueLinkService_LinkIssue_TwiceKeepsOneLink(t *testing.T) {
	f := setupIssueLinkService()
	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil)
	f.fetcher.On("FetchIssue", mock.Anything, issueURL).
		Return(&issuetracker.Issue{Number: "42", Title: "First read", State: "open"}, nil).Once()
	f.fetcher.On("FetchIssue", mock.Anything, issueURL).
		Return(&issuetracker.Issue{Number: "42", Title: "Second read", State: "resolved"}, nil).Once()
	stored := map[uuid.UUID]*model.IssueLink{}
	f.upsertInto(stored)

	first, err := f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, issueURL)
	require.NoError(t, err)
	second, err := f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, issueURL)
	require.NoError(t, err)

	assert.Len(t, stored, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Second read", stored[f.task.ID].IssueTitle)
	assert.Equal(t, model.IssueStateResolved, stored[f.task.ID].IssueState)
}

func TestIssueLinkService_LinkIssue_RateLimitedWritesNothing(t *testing.T) {
	f := setupIssueLinkService()
	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil)
	f.fetcher.On("FetchIssue", mock.Anything, issueURL).
		Return(nil, &issuetracker.RateLimitError{Remaining: "0"})

	_, err := f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, issueURL)

	assert.ErrorIs(t, err, apperr.ErrRateLimited)
	f.links.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestIssueLinkService_LinkIssue_UpstreamFailureWritesNothing(t *testing.T) {
	f := setupIssueLinkService()
	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil)
	f.fetcher.On("FetchIssue", mock.Anything, issueURL).
		Return(nil, fmt.Errorf("%w: connection refused", apperr.ErrUpstreamFetchFailed))

	_, err := f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, issueURL)

	assert.ErrorIs(t, err, apperr.ErrUpstreamFetchFailed)
	f.links.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestIssueLinkService_LinkIssue_DeniedBeforeFetch(t *testing.T) {
	f := setupIssueLinkService()
	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil)

	_, err := f.svc.LinkIssue(context.Background(), userActor(), f.task.ID, issueURL)

	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	f.fetcher.AssertNotCalled(t, "FetchIssue", mock.Anything, mock.Anything)
}

func TestIssueLinkService_LinkIssue_MissingTask(t *testing.T) {
	f := setupIssueLinkService()
	id := uuid.New()
	f.tasks.On("GetByID", mock.Anything, id).Return(nil, repository.ErrTaskNotFound)

	_, err := f.svc.LinkIssue(context.Background(), f.owner, id, issueURL)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	f.fetcher.AssertNotCalled(t, "FetchIssue", mock.Anything, mock.Anything)
}

func TestIssueLinkService_LinkIssue_EmptyURL(t *testing.T) {
	f := setupIssueLinkService()

	_, err := f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, "")

	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestIssueLinkService_GetLink(t *testing.T) {
	f := setupIssueLinkService()
	link := &model.IssueLink{ID: uuid.New(), TaskID: f.task.ID, IssueNumber: "42", IssueState: model.IssueStateOpen}
	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil)
	f.links.On("GetByTaskID", mock.Anything, f.task.ID).Return(link, nil)

	got, err := f.svc.GetLink(context.Background(), f.owner, f.task.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)

	_, err = f.svc.GetLink(context.Background(), adminActor(), f.task.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetLink(context.Background(), userActor(), f.task.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestIssueLinkService_GetLink_AfterTaskDelete(t *testing.T) {
	f := setupIssueLinkService()
	tasks := service.NewTaskService(f.tasks, new(MockUserRepository), nil)

	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil).Once()
	f.tasks.On("Delete", mock.Anything, f.task.ID).Return(nil)
	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(nil, repository.ErrTaskNotFound)

	require.NoError(t, tasks.Delete(context.Background(), f.owner, f.task.ID))

	_, err := f.svc.GetLink(context.Background(), f.owner, f.task.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	f.links.AssertNotCalled(t, "GetByTaskID", mock.Anything, mock.Anything)
}

func TestIssueLinkService_LinkIssue_CoalescesIdenticalRequests(t *testing.T) {
	f := setupIssueLinkService()
	started := make(chan struct{})
	release := make(chan struct{})

	f.tasks.On("GetByID", mock.Anything, f.task.ID).Return(f.task, nil)
	f.fetcher.On("FetchIssue", mock.Anything, issueURL).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&issuetracker.Issue{Number: "42", Title: "Crash", State: "open"}, nil).Once()
	stored := map[uuid.UUID]*model.IssueLink{}
	f.upsertInto(stored)

	const callers = 4
	results := make([]*model.IssueLink, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, issueURL)
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.LinkIssue(context.Background(), f.owner, f.task.ID, issueURL)
		}(i)
	}
	// Give the followers time to join the in-flight fetch.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "42", results[i].IssueNumber)
	}
	f.fetcher.AssertNumberOfCalls(t, "FetchIssue", 1)
	f.links.AssertNumberOfCalls(t, "Upsert", 1)

	// Each caller owns its copy.
	assert.NotSame(t, results[0], results[1])
	results[0].IssueTitle = "changed"
	assert.Equal(t, "Crash", results[1].IssueTitle)
}
