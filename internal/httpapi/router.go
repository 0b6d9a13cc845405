package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fablesmith/storyforge/internal/common"
	"github.com/fablesmith/storyforge/internal/config"
	"github.com/fablesmith/storyforge/internal/httpapi/handlers"
	"github.com/fablesmith/storyforge/internal/httpapi/middleware"
	"github.com/fablesmith/storyforge/internal/models"
)

func NewRouter(h *handlers.Handler, cfg config.Config, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// open endpoints
	r.POST("/users/register", h.Register)
	r.POST("/users/login", h.Login)
	r.POST("/users/forgot-password", h.ForgotPassword)
	r.POST("/users/reset-password", h.ResetPassword)

	// public share render: token possession is the credential
	r.GET("/share/:token", h.PublicStory)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))

	authGroup.GET("/me", h.Me)
	authGroup.PUT("/me", h.UpdateMe)
	authGroup.GET("/users", middleware.RequireRole(models.RoleAdmin), h.ListUsers)

	// async story generation
	authGroup.POST("/stories", h.CreateStory)
	authGroup.GET("/stories/status/:job_id", h.GetStoryStatus)

	// story projects
	authGroup.POST("/projects", h.CreateProject)
	authGroup.GET("/projects", h.ListProjects)
	authGroup.GET("/projects/:id", h.GetProject)
	authGroup.PUT("/projects/:id", h.UpdateProject)
	authGroup.DELETE("/projects/:id", h.DeleteProject)
	authGroup.GET("/projects/:id/versions", h.ListVersions)

	authGroup.POST("/projects/:id/pages", h.AddPage)
	authGroup.DELETE("/projects/:id/pages/:page_id", h.DeletePage)
	authGroup.PUT("/projects/:id/pages/:page_id/text", h.UpdatePageText)
	authGroup.PUT("/projects/:id/pages/:page_id/image", h.UploadPageImage)
	authGroup.POST("/projects/:id/pages/:page_id/image/regenerate", h.RegeneratePageImage)
	authGroup.POST("/projects/:id/pages/:page_id/image/upscale", h.UpscalePageImage)

	// sharing and export
	authGroup.PUT("/projects/:id/share", h.UpdateShareSettings)
	authGroup.POST("/projects/:id/export/pdf", h.ExportProjectPDF)

	return r
}
