package router

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

type Handler interface {
	CreateDraft(c *ginext.Context)
	GetEvent(c *ginext.Context)
	UpdateEvent(c *ginext.Context)
	PublishEvent(c *ginext.Context)
	UpdateEventStatus(c *ginext.Context)
	CloseRegistration(c *ginext.Context)
	DeleteDraft(c *ginext.Context)
	Register(c *ginext.Context)
	Unregister(c *ginext.Context)
	OrganizerEvents(c *ginext.Context)
	UserEvents(c *ginext.Context)
	CreateCategory(c *ginext.Context)
	UpdateCategory(c *ginext.Context)
	ListCategories(c *ginext.Context)
	DeleteCategory(c *ginext.Context)
	InstallUser(c *ginext.Context)
	UninstallUser(c *ginext.Context)
	InstallTeam(c *ginext.Context)
	UninstallTeam(c *ginext.Context)
}

func InitRouter(mode string, h Handler, mw ...ginext.HandlerFunc) *ginext.Engine {
	router := ginext.New(mode)
	router.Use(mw...)

	api := router.Group("/api")
	{
		// Event lifecycle
		events := api.Group("/teams/:teamId/events")
		{
			events.POST("", h.CreateDraft)
			events.GET("", h.OrganizerEvents)
			events.GET("/:eventId", h.GetEvent)
			events.PUT("/:eventId", h.UpdateEvent)
			events.DELETE("/:eventId", h.DeleteDraft)
			events.POST("/:eventId/publish", h.PublishEvent)
			events.PATCH("/:eventId/status", h.UpdateEventStatus)
			events.POST("/:eventId/close-registration", h.CloseRegistration)

			// Attendee self-service
			events.POST("/:eventId/register", h.Register)
			events.POST("/:eventId/unregister", h.Unregister)
		}

		api.GET("/users/:userId/events", h.UserEvents)

		categories := api.Group("/categories")
		{
			categories.POST("", h.CreateCategory)
			categories.GET("", h.ListCategories)
			categories.PUT("/:categoryId", h.UpdateCategory)
			categories.DELETE("/:categoryId", h.DeleteCategory)
		}

		installations := api.Group("/installations")
		{
			installations.POST("/users", h.InstallUser)
			installations.DELETE("/users/:userId", h.UninstallUser)
			installations.POST("/teams", h.InstallTeam)
			installations.DELETE("/teams/:teamId", h.UninstallTeam)
		}
	}

	router.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})

	return router
}
