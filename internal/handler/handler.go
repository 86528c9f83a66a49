package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/handler/dto"
	"github.com/wb-go/wbf/ginext"
)

type LifecycleSvc interface {
	GetEvent(ctx context.Context, teamID, eventID string) (*domain.Event, error)
	CreateDraft(ctx context.Context, input domain.EventInput) (*domain.Event, error)
	UpdateEvent(ctx context.Context, input domain.EventInput) (*domain.Event, error)
	PublishEvent(ctx context.Context, input domain.EventInput) (*domain.Event, error)
	UpdateEventStatus(ctx context.Context, teamID, eventID string, newStatus domain.EventStatus, callerID string) (bool, error)
	CloseRegistration(ctx context.Context, teamID, eventID, callerID string) (bool, error)
	DeleteDraft(ctx context.Context, teamID, eventID, callerID string) (bool, error)
}

type RegistrationSvc interface {
	Register(ctx context.Context, teamID, eventID, userID string) (bool, error)
	Unregister(ctx context.Context, teamID, eventID, userID string) (bool, error)
}

type SearchSvc interface {
	OrganizerEvents(ctx context.Context, teamID string, page domain.Page) ([]*domain.IndexedEvent, error)
	UserEvents(ctx context.Context, viewerID string, sortBy domain.UserEventSort, page domain.Page) ([]*domain.IndexedEvent, error)
}

type CategorySvc interface {
	Create(ctx context.Context, input domain.CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, input domain.CategoryInput) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

type InstallationSvc interface {
	InstallUser(ctx context.Context, userID string, chatID int64, serviceURL string) error
	UninstallUser(ctx context.Context, userID string) error
	InstallTeam(ctx context.Context, teamID string, chatID int64, serviceURL string) error
	UninstallTeam(ctx context.Context, teamID string) error
}

type Handler struct {
	lifecycle     LifecycleSvc
	registrations RegistrationSvc
	search        SearchSvc
	categories    CategorySvc
	installations InstallationSvc
}

func NewHandler(
	lifecycle LifecycleSvc,
	registrations RegistrationSvc,
	search SearchSvc,
	categories CategorySvc,
	installations InstallationSvc,
) *Handler {
	return &Handler{
		lifecycle:     lifecycle,
		registrations: registrations,
		search:        search,
		categories:    categories,
		installations: installations,
	}
}

// Events

func (h *Handler) CreateDraft(c *ginext.Context) {
	input, ok := h.bindEvent(c, "")
	if !ok {
		return
	}

	event, err := h.lifecycle.CreateDraft(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEventResponse(event, time.Now().UTC()))
}

func (h *Handler) GetEvent(c *ginext.Context) {
	event, err := h.lifecycle.GetEvent(c.Request.Context(), c.Param("teamId"), c.Param("eventId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventResponse(event, time.Now().UTC()))
}

func (h *Handler) UpdateEvent(c *ginext.Context) {
	input, ok := h.bindEvent(c, c.Param("eventId"))
	if !ok {
		return
	}

	event, err := h.lifecycle.UpdateEvent(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventResponse(event, time.Now().UTC()))
}

func (h *Handler) PublishEvent(c *ginext.Context) {
	input, ok := h.bindEvent(c, c.Param("eventId"))
	if !ok {
		return
	}

	event, err := h.lifecycle.PublishEvent(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventResponse(event, time.Now().UTC()))
}

func (h *Handler) UpdateEventStatus(c *ginext.Context) {
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	applied, err := h.lifecycle.UpdateEventStatus(
		c.Request.Context(),
		c.Param("teamId"), c.Param("eventId"),
		domain.EventStatus(req.Status), req.CallerID,
	)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "status transition not applied"})
		return
	}

	c.JSON(http.StatusOK, ginext.H{"status": req.Status})
}

func (h *Handler) CloseRegistration(c *ginext.Context) {
	var req dto.CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	applied, err := h.lifecycle.CloseRegistration(c.Request.Context(), c.Param("teamId"), c.Param("eventId"), req.CallerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "registration is not open"})
		return
	}

	c.JSON(http.StatusOK, ginext.H{"status": "registration closed"})
}

func (h *Handler) DeleteDraft(c *ginext.Context) {
	callerID := c.Query("caller_id")
	if callerID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "caller_id is required"})
		return
	}

	removed, err := h.lifecycle.DeleteDraft(c.Request.Context(), c.Param("teamId"), c.Param("eventId"), callerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "only drafts can be deleted"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Registrations

func (h *Handler) Register(c *ginext.Context) {
	userID, ok := h.bindRegistration(c)
	if !ok {
		return
	}

	registered, err := h.registrations.Register(c.Request.Context(), c.Param("teamId"), c.Param("eventId"), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !registered {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "registration is not available for this event"})
		return
	}

	c.JSON(http.StatusOK, ginext.H{"status": "registered"})
}

func (h *Handler) Unregister(c *ginext.Context) {
	userID, ok := h.bindRegistration(c)
	if !ok {
		return
	}

	removed, err := h.registrations.Unregister(c.Request.Context(), c.Param("teamId"), c.Param("eventId"), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "user is not registered for this event"})
		return
	}

	c.JSON(http.StatusOK, ginext.H{"status": "unregistered"})
}

// Queries

func (h *Handler) OrganizerEvents(c *ginext.Context) {
	events, err := h.search.OrganizerEvents(c.Request.Context(), c.Param("teamId"), parsePage(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toIndexedResponses(events))
}

func (h *Handler) UserEvents(c *ginext.Context) {
	sortBy := domain.UserEventSort(c.DefaultQuery("sort", string(domain.SortByRecency)))
	switch sortBy {
	case domain.SortByRecency, domain.SortByPopularity, domain.SortByCollaboratorPopularity:
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid sort, expected recent, popular or collaborators"})
		return
	}

	events, err := h.search.UserEvents(c.Request.Context(), c.Param("userId"), sortBy, parsePage(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toIndexedResponses(events))
}

// Categories

func (h *Handler) CreateCategory(c *ginext.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	category, err := h.categories.Create(c.Request.Context(), domain.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		CallerID:    req.CallerID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCategoryResponse(category))
}

func (h *Handler) UpdateCategory(c *ginext.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	category, err := h.categories.Update(c.Request.Context(), domain.CategoryInput{
		ID:          c.Param("categoryId"),
		Name:        req.Name,
		Description: req.Description,
		CallerID:    req.CallerID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCategoryResponse(category))
}

func (h *Handler) ListCategories(c *ginext.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, dto.ToCategoryResponse(cat))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteCategory(c *ginext.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("categoryId")); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Installations

func (h *Handler) InstallUser(c *ginext.Context) {
	var req dto.UserInstallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.installations.InstallUser(c.Request.Context(), req.UserID, req.ChatID, req.ServiceURL); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ginext.H{"status": "installed"})
}

func (h *Handler) UninstallUser(c *ginext.Context) {
	if err := h.installations.UninstallUser(c.Request.Context(), c.Param("userId")); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) InstallTeam(c *ginext.Context) {
	var req dto.TeamInstallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.installations.InstallTeam(c.Request.Context(), req.TeamID, req.ChatID, req.ServiceURL); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ginext.H{"status": "installed"})
}

func (h *Handler) UninstallTeam(c *ginext.Context) {
	if err := h.installations.UninstallTeam(c.Request.Context(), c.Param("teamId")); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// helpers

func (h *Handler) bindEvent(c *ginext.Context, eventID string) (domain.EventInput, bool) {
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return domain.EventInput{}, false
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return domain.EventInput{}, false
	}

	input, err := req.ToEventInput(c.Param("teamId"), eventID)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return domain.EventInput{}, false
	}
	return input, true
}

func (h *Handler) bindRegistration(c *ginext.Context) (string, bool) {
	var req dto.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return "", false
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return "", false
	}
	return req.UserID, true
}

func parsePage(c *ginext.Context) domain.Page {
	number, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || number < 0 {
		number = 0
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size <= 0 || size > 100 {
		size = 20
	}
	return domain.Page{Number: number, Size: size}
}

func toIndexedResponses(events []*domain.IndexedEvent) []dto.IndexedEventResponse {
	now := time.Now().UTC()
	resp := make([]dto.IndexedEventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, dto.ToIndexedEventResponse(e, now))
	}
	return resp
}

func (h *Handler) handleError(c *ginext.Context, err error) {
	c.Set("error", err.Error())

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation failed", Fields: vErr.Fields})
		return
	}

	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrInstallationNotFound),
		errors.Is(err, domain.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrCategoryInUse),
		errors.Is(err, domain.ErrRetriesExhausted):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrThrottled),
		errors.Is(err, domain.ErrBadGateway):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}
