package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taskmaster/internal/issuetracker"
	"taskmaster/internal/model"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, onlyID *uuid.UUID) ([]model.User, error) {
	args := m.Called(ctx, onlyID)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) AssignUser(ctx context.Context, taskID, userID uuid.UUID) error {
	args := m.Called(ctx, taskID, userID)
	return args.Error(0)
}

type MockIssueLinkRepository struct {
	mock.Mock
}

func (m *MockIssueLinkRepository) Upsert(ctx context.Context, link *model.IssueLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockIssueLinkRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) (*model.IssueLink, error) {
	args := m.Called(ctx, taskID)
	link := args.Get(0)
	if link == nil {
		return nil, args.Error(1)
	}
	return link.(*model.IssueLink), args.Error(1)
}

type MockIssueFetcher struct {
	mock.Mock
}

func (m *MockIssueFetcher) FetchIssue(ctx context.Context, issueURL string) (*issuetracker.Issue, error) {
	args := m.Called(ctx, issueURL)
	issue := args.Get(0)
	if issue == nil {
		return nil, args.Error(1)
	}
	return issue.(*issuetracker.Issue), args.Error(1)
}
