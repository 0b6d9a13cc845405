package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fablesmith/storyforge/internal/common"
	"github.com/fablesmith/storyforge/internal/config"
	"github.com/fablesmith/storyforge/internal/email"
	"github.com/fablesmith/storyforge/internal/httpapi/middleware"
	"github.com/fablesmith/storyforge/internal/imagegen"
	"github.com/fablesmith/storyforge/internal/models"
	"github.com/fablesmith/storyforge/internal/project"
	"github.com/fablesmith/storyforge/internal/share"
	"github.com/fablesmith/storyforge/internal/storage"
	"github.com/fablesmith/storyforge/internal/store/redisstore"
	"github.com/fablesmith/storyforge/internal/story"
)

type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	Log         zerolog.Logger
	Redis       *redisstore.Store
	Mail        *email.Sender
	Pipeline    *story.Pipeline
	Projects    *project.Service
	Share       *share.Service
	Illustrator imagegen.Illustrator
	Store       storage.ObjectStore
}

func NewHandler(
	db *gorm.DB,
	cfg config.Config,
	log zerolog.Logger,
	rds *redisstore.Store,
	mail *email.Sender,
	pipeline *story.Pipeline,
	projects *project.Service,
	shareSvc *share.Service,
	illustrator imagegen.Illustrator,
	store storage.ObjectStore,
) *Handler {
	return &Handler{
		DB:          db,
		Cfg:         cfg,
		Log:         log,
		Redis:       rds,
		Mail:        mail,
		Pipeline:    pipeline,
		Projects:    projects,
		Share:       shareSvc,
		Illustrator: illustrator,
		Store:       store,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.Ok(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func roleFromContext(c *gin.Context) models.Role {
	v, ok := c.Get(middleware.RoleKey)
	if !ok {
		return models.RoleReader
	}
	role, ok := v.(models.Role)
	if !ok {
		return models.RoleReader
	}
	return role
}

// failProjectErr maps service errors to the response envelope. Anything not
// in the taxonomy is a generic 500 with the detail kept in the logs.
func (h *Handler) failProjectErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, project.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40004, "project not found")
	case errors.Is(err, project.ErrPageNotFound):
		common.Fail(c, http.StatusNotFound, 40005, "page not found")
	case errors.Is(err, project.ErrNotOwner):
		common.Fail(c, http.StatusUnauthorized, 40102, "not authorized")
	case errors.Is(err, project.ErrValidation):
		common.Fail(c, http.StatusBadRequest, 10002, "invalid input")
	default:
		h.Log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("project operation failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
