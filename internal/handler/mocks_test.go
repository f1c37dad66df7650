package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"taskmaster/internal/auth"
	"taskmaster/internal/handler"
	"taskmaster/internal/middleware"
	"taskmaster/internal/model"
	"taskmaster/internal/policy"
	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Моки сервисов
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, creds service.Credentials) (*model.User, error) {
	args := m.Called(ctx, creds)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, creds service.Credentials) (*service.Session, error) {
	args := m.Called(ctx, creds)
	session := args.Get(0)
	if session == nil {
		return nil, args.Error(1)
	}
	return session.(*service.Session), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, actor, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, actor policy.Actor) ([]model.User, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, actor policy.Actor, id uuid.UUID, patch service.ProfilePatch) (*model.User, error) {
	args := m.Called(ctx, actor, id, patch)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, actor policy.Actor, draft service.TaskDraft) (*model.Task, error) {
	args := m.Called(ctx, actor, draft)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, actor, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, actor policy.Actor) ([]model.Task, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, draft service.TaskDraft) (*model.Task, error) {
	args := m.Called(ctx, actor, id, draft)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockTaskService) Assign(ctx context.Context, actor policy.Actor, id, newOwnerID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, actor, id, newOwnerID)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

type MockIssueLinkService struct {
	mock.Mock
}

func (m *MockIssueLinkService) LinkIssue(ctx context.Context, actor policy.Actor, taskID uuid.UUID, issueURL string) (*model.IssueLink, error) {
	args := m.Called(ctx, actor, taskID, issueURL)
	link := args.Get(0)
	if link == nil {
		return nil, args.Error(1)
	}
	return link.(*model.IssueLink), args.Error(1)
}

func (m *MockIssueLinkService) GetLink(ctx context.Context, actor policy.Actor, taskID uuid.UUID) (*model.IssueLink, error) {
	args := m.Called(ctx, actor, taskID)
	link := args.Get(0)
	if link == nil {
		return nil, args.Error(1)
	}
	return link.(*model.IssueLink), args.Error(1)
}

var tokens = auth.NewTokenIssuer("test-secret", "taskmaster", "taskmaster-clients")

type testAPI struct {
	router *gin.Engine
	users  *MockUserService
	tasks  *MockTaskService
	links  *MockIssueLinkService
}

func setupTest() *testAPI {
	gin.SetMode(gin.TestMode)
	api := &testAPI{
		router: gin.New(),
		users:  new(MockUserService),
		tasks:  new(MockTaskService),
		links:  new(MockIssueLinkService),
	}

	userHandler := handler.NewUserHandler(api.users)
	taskHandler := handler.NewTaskHandler(api.tasks)
	linkHandler := handler.NewIssueLinkHandler(api.links)

	r := api.router
	r.Use(middleware.ErrorHandler(nil))
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	authorized.GET("/users", userHandler.GetAll)
	authorized.GET("/users/:id", userHandler.GetByID)
	authorized.PUT("/users/:id", userHandler.Update)
	authorized.DELETE("/users/:id", userHandler.Delete)
	authorized.POST("/tasks", taskHandler.Create)
	authorized.GET("/tasks", taskHandler.GetAll)
	authorized.GET("/tasks/:id", taskHandler.GetByID)
	authorized.PUT("/tasks/:id", taskHandler.Update)
	authorized.DELETE("/tasks/:id", taskHandler.Delete)
	authorized.POST("/tasks/:id/assign", taskHandler.AssignUser)
	authorized.POST("/tasks/:id/issue", linkHandler.Link)
	authorized.GET("/tasks/:id/issue", linkHandler.Get)
	return api
}

// do sends a request as actor; a zero actor sends no token.
func (api *testAPI) do(actor policy.Actor, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != uuid.Nil {
		token, _, err := tokens.Issue(&model.User{ID: actor.ID, Username: "caller", Role: actor.Role})
		if err != nil {
			panic(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	api.router.ServeHTTP(resp, req)
	return resp
}

// noActor makes do send the request without a token.
var noActor policy.Actor

func newActor(role model.Role) policy.Actor {
	return policy.Actor{ID: uuid.New(), Role: role}
}
