package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/handler/dto"
)

type mockLifecycle struct{ mock.Mock }

func (m *mockLifecycle) GetEvent(ctx context.Context, teamID, eventID string) (*domain.Event, error) {
	args := m.Called(ctx, teamID, eventID)
	if e, ok := args.Get(0).(*domain.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLifecycle) CreateDraft(ctx context.Context, input domain.EventInput) (*domain.Event, error) {
	args := m.Called(ctx, input)
	if e, ok := args.Get(0).(*domain.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLifecycle) UpdateEvent(ctx context.Context, input domain.EventInput) (*domain.Event, error) {
	args := m.Called(ctx, input)
	if e, ok := args.Get(0).(*domain.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLifecycle) PublishEvent(ctx context.Context, input domain.EventInput) (*domain.Event, error) {
	args := m.Called(ctx, input)
	if e, ok := args.Get(0).(*domain.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLifecycle) UpdateEventStatus(ctx context.Context, teamID, eventID string, newStatus domain.EventStatus, callerID string) (bool, error) {
	args := m.Called(ctx, teamID, eventID, newStatus, callerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLifecycle) CloseRegistration(ctx context.Context, teamID, eventID, callerID string) (bool, error) {
	args := m.Called(ctx, teamID, eventID, callerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLifecycle) DeleteDraft(ctx context.Context, teamID, eventID, callerID string) (bool, error) {
	args := m.Called(ctx, teamID, eventID, callerID)
	return args.Bool(0), args.Error(1)
}

type mockRegistration struct{ mock.Mock }

func (m *mockRegistration) Register(ctx context.Context, teamID, eventID, userID string) (bool, error) {
	args := m.Called(ctx, teamID, eventID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRegistration) Unregister(ctx context.Context, teamID, eventID, userID string) (bool, error) {
	args := m.Called(ctx, teamID, eventID, userID)
	return args.Bool(0), args.Error(1)
}

type mockSearch struct{ mock.Mock }

func (m *mockSearch) OrganizerEvents(ctx context.Context, teamID string, page domain.Page) ([]*domain.IndexedEvent, error) {
	args := m.Called(ctx, teamID, page)
	if es, ok := args.Get(0).([]*domain.IndexedEvent); ok {
		return es, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSearch) UserEvents(ctx context.Context, viewerID string, sortBy domain.UserEventSort, page domain.Page) ([]*domain.IndexedEvent, error) {
	args := m.Called(ctx, viewerID, sortBy, page)
	if es, ok := args.Get(0).([]*domain.IndexedEvent); ok {
		return es, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCategories struct{ mock.Mock }

func (m *mockCategories) Create(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, input)
	if c, ok := args.Get(0).(*domain.Category); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCategories) Update(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, input)
	if c, ok := args.Get(0).(*domain.Category); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCategories) List(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	if cs, ok := args.Get(0).([]*domain.Category); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCategories) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockInstallations struct{ mock.Mock }

func (m *mockInstallations) InstallUser(ctx context.Context, userID string, chatID int64, serviceURL string) error {
	return m.Called(ctx, userID, chatID, serviceURL).Error(0)
}

func (m *mockInstallations) UninstallUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockInstallations) InstallTeam(ctx context.Context, teamID string, chatID int64, serviceURL string) error {
	return m.Called(ctx, teamID, chatID, serviceURL).Error(0)
}

func (m *mockInstallations) UninstallTeam(ctx context.Context, teamID string) error {
	return m.Called(ctx, teamID).Error(0)
}

type testServices struct {
	lifecycle     *mockLifecycle
	registrations *mockRegistration
	search        *mockSearch
	categories    *mockCategories
	installations *mockInstallations
}

func setupRouter(t *testing.T) (*testServices, http.Handler) {
	t.Helper()
	svcs := &testServices{
		lifecycle:     &mockLifecycle{},
		registrations: &mockRegistration{},
		search:        &mockSearch{},
		categories:    &mockCategories{},
		installations: &mockInstallations{},
	}
	t.Cleanup(func() {
		svcs.lifecycle.AssertExpectations(t)
		svcs.registrations.AssertExpectations(t)
		svcs.search.AssertExpectations(t)
		svcs.categories.AssertExpectations(t)
		svcs.installations.AssertExpectations(t)
	})

	h := NewHandler(svcs.lifecycle, svcs.registrations, svcs.search, svcs.categories, svcs.installations)

	r := ginext.New("test")
	api := r.Group("/api")
	{
		events := api.Group("/teams/:teamId/events")
		events.POST("", h.CreateDraft)
		events.GET("", h.OrganizerEvents)
		events.GET("/:eventId", h.GetEvent)
		events.PUT("/:eventId", h.UpdateEvent)
		events.DELETE("/:eventId", h.DeleteDraft)
		events.POST("/:eventId/publish", h.PublishEvent)
		events.PATCH("/:eventId/status", h.UpdateEventStatus)
		events.POST("/:eventId/register", h.Register)
		events.POST("/:eventId/unregister", h.Unregister)
		api.GET("/users/:userId/events", h.UserEvents)
		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.CreateCategory)
	}

	return svcs, r
}

func eventRequestBody() map[string]any {
	return map[string]any{
		"name":             "Go workshop",
		"type":             "teams",
		"start_date":       "2026-09-10T00:00:00Z",
		"end_date":         "2026-09-10T00:00:00Z",
		"start_time":       "2026-09-10T10:00:00Z",
		"end_time":         "2026-09-10T12:00:00Z",
		"max_participants": 10,
		"audience":         "public",
		"caller_id":        "organizer",
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateDraft_Success(t *testing.T) {
	svcs, r := setupRouter(t)

	event := &domain.Event{
		ID:        "e1",
		TeamID:    "t1",
		Name:      "Go workshop",
		Status:    domain.EventStatusDraft,
		CreatedOn: time.Now(),
	}
	svcs.lifecycle.On("CreateDraft", mock.Anything, mock.MatchedBy(func(in domain.EventInput) bool {
		return in.TeamID == "t1" && in.Name == "Go workshop" && in.CallerID == "organizer"
	})).Return(event, nil)

	w := doJSON(t, r, http.MethodPost, "/api/teams/t1/events", eventRequestBody())
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "e1", resp.ID)
	assert.Equal(t, "draft", resp.Status)
}

func TestHandler_CreateDraft_MissingName(t *testing.T) {
	_, r := setupRouter(t)

	body := eventRequestBody()
	delete(body, "name")

	w := doJSON(t, r, http.MethodPost, "/api/teams/t1/events", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreateDraft_InvalidDate(t *testing.T) {
	_, r := setupRouter(t)

	body := eventRequestBody()
	body["start_date"] = "not-a-date"

	w := doJSON(t, r, http.MethodPost, "/api/teams/t1/events", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreateDraft_ValidationErrorFields(t *testing.T) {
	svcs, r := setupRouter(t)

	var vErr domain.ValidationError
	vErr.Add("end_date", "must be after start date")
	svcs.lifecycle.On("CreateDraft", mock.Anything, mock.Anything).Return(nil, vErr.ErrOrNil())

	w := doJSON(t, r, http.MethodPost, "/api/teams/t1/events", eventRequestBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "end_date", resp.Fields[0].Field)
}

func TestHandler_GetEvent_NotFound(t *testing.T) {
	svcs, r := setupRouter(t)
	svcs.lifecycle.On("GetEvent", mock.Anything, "t1", "missing").Return(nil, domain.ErrEventNotFound)

	w := doJSON(t, r, http.MethodGet, "/api/teams/t1/events/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_PublishEvent_Success(t *testing.T) {
	svcs, r := setupRouter(t)

	published := &domain.Event{
		ID:           "e1",
		TeamID:       "t1",
		Status:       domain.EventStatusActive,
		GraphEventID: "g-1",
		StartDate:    time.Date(2099, 9, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2099, 9, 10, 0, 0, 0, 0, time.UTC),
		StartTime:    time.Date(2099, 9, 10, 10, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2099, 9, 10, 12, 0, 0, 0, time.UTC),
	}
	svcs.lifecycle.On("PublishEvent", mock.Anything, mock.MatchedBy(func(in domain.EventInput) bool {
		return in.EventID == "e1"
	})).Return(published, nil)

	w := doJSON(t, r, http.MethodPost, "/api/teams/t1/events/e1/publish", eventRequestBody())
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "active", resp.Status)
}

func TestHandler_UpdateEventStatus_Conflict(t *testing.T) {
	svcs, r := setupRouter(t)
	svcs.lifecycle.On("UpdateEventStatus", mock.Anything, "t1", "e1", domain.EventStatusCancelled, "organizer").
		Return(false, nil)

	w := doJSON(t, r, http.MethodPatch, "/api/teams/t1/events/e1/status",
		map[string]string{"status": "cancelled", "caller_id": "organizer"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_UpdateEventStatus_InvalidStatus(t *testing.T) {
	_, r := setupRouter(t)

	w := doJSON(t, r, http.MethodPatch, "/api/teams/t1/events/e1/status",
		map[string]string{"status": "draft", "caller_id": "organizer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Register_Success(t *testing.T) {
	svcs, r := setupRouter(t)
	svcs.registrations.On("Register", mock.Anything, "t1", "e1", "u1").Return(true, nil)

	w := doJSON(t, r, http.MethodPost, "/api/teams/t1/events/e1/register", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Register_Unavailable(t *testing.T) {
	svcs, r := setupRouter(t)
	svcs.registrations.On("Register", mock.Anything, "t1", "e1", "u1").Return(false, nil)

	w := doJSON(t, r, http.MethodPost, "/api/teams/t1/events/e1/register", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_DeleteDraft_RequiresCaller(t *testing.T) {
	_, r := setupRouter(t)

	w := doJSON(t, r, http.MethodDelete, "/api/teams/t1/events/e1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_OrganizerEvents_Paging(t *testing.T) {
	svcs, r := setupRouter(t)
	svcs.search.On("OrganizerEvents", mock.Anything, "t1", domain.Page{Number: 2, Size: 5}).
		Return([]*domain.IndexedEvent{{EventID: "e1", TeamID: "t1"}}, nil)

	w := doJSON(t, r, http.MethodGet, "/api/teams/t1/events?page=2&size=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp []dto.IndexedEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "e1", resp[0].EventID)
}

func TestHandler_UserEvents_InvalidSort(t *testing.T) {
	_, r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/users/u1/events?sort=alphabetical", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_UserEvents_DefaultSort(t *testing.T) {
	svcs, r := setupRouter(t)
	svcs.search.On("UserEvents", mock.Anything, "u1", domain.SortByRecency, domain.Page{Number: 0, Size: 20}).
		Return(nil, nil)

	w := doJSON(t, r, http.MethodGet, "/api/users/u1/events", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_CreateCategory(t *testing.T) {
	svcs, r := setupRouter(t)
	svcs.categories.On("Create", mock.Anything, domain.CategoryInput{Name: "Leadership", CallerID: "admin"}).
		Return(&domain.Category{ID: "c1", Name: "Leadership", CreatedOn: time.Now()}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/categories",
		map[string]string{"name": "Leadership", "caller_id": "admin"})
	assert.Equal(t, http.StatusCreated, w.Code)
}
