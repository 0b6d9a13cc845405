package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fablesmith/storyforge/internal/common"
	"github.com/fablesmith/storyforge/internal/project"
)

type shareSettingsReq struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

func (h *Handler) UpdateShareSettings(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req shareSettingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "is_public is required")
		return
	}

	p, err := h.Share.SetSharing(c.Request.Context(), uid, c.Param("id"), *req.IsPublic)
	if err != nil {
		h.failProjectErr(c, err)
		return
	}

	var shareURL any
	if p.IsPublic && p.ShareToken != nil {
		shareURL = "/share/" + *p.ShareToken
	}
	common.Ok(c, gin.H{"is_public": p.IsPublic, "share_url": shareURL})
}

// PublicStory serves the shared storybook HTML. No auth; the token is the
// credential. Everything that is not a public project, and every internal
// failure, collapses into the same terse response so nothing leaks.
func (h *Handler) PublicStory(c *gin.Context) {
	html, err := h.Share.PublicHTML(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8",
				[]byte("<h1>Story not found or is not public.</h1>"))
			return
		}
		h.Log.Error().Err(err).Msg("public render failed")
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
			[]byte("<h1>Error loading story.</h1>"))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *Handler) ExportProjectPDF(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	ref, url, err := h.Share.ExportPDF(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, gin.H{"document": ref, "url": url})
}
