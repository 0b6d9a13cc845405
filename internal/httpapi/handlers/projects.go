package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fablesmith/storyforge/internal/common"
	"github.com/fablesmith/storyforge/internal/project"
)

type createProjectReq struct {
	Title      string `json:"title" binding:"required"`
	AuthorName string `json:"author_name" binding:"required"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "title and author name are required")
		return
	}

	p, err := h.Projects.Create(c.Request.Context(), uid, req.Title, req.AuthorName)
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 0, "message": "created", "data": p})
}

func (h *Handler) ListProjects(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	ps, err := h.Projects.ListByOwner(c.Request.Context(), uid)
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, gin.H{"projects": ps})
}

func (h *Handler) GetProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	p, err := h.Projects.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, p)
}

type updateProjectReq struct {
	Title      *string              `json:"title"`
	AuthorName *string              `json:"author_name"`
	CoverImage *string              `json:"cover_image"`
	Pages      *[]project.PageInput `json:"pages"`
}

func (h *Handler) UpdateProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	p, err := h.Projects.Update(c.Request.Context(), uid, roleFromContext(c), c.Param("id"), project.UpdateInput{
		Title:      req.Title,
		AuthorName: req.AuthorName,
		CoverImage: req.CoverImage,
		Pages:      req.Pages,
	})
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, p)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	if err := h.Projects.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, gin.H{"message": "project removed"})
}

func (h *Handler) ListVersions(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	vs, err := h.Projects.Versions(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, gin.H{"versions": vs})
}

type addPageReq struct {
	Text  string `json:"text" binding:"required"`
	Image string `json:"image" binding:"required"`
}

func (h *Handler) AddPage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	var req addPageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "text and image are required")
		return
	}
	p, err := h.Projects.AddPage(c.Request.Context(), uid, c.Param("id"), req.Text, req.Image)
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 0, "message": "created", "data": p})
}

func (h *Handler) DeletePage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	p, err := h.Projects.DeletePage(c.Request.Context(), uid, c.Param("id"), c.Param("page_id"))
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, p)
}

type updatePageTextReq struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) UpdatePageText(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	var req updatePageTextReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "text content is required")
		return
	}
	p, err := h.Projects.UpdatePageText(c.Request.Context(), uid, c.Param("id"), c.Param("page_id"), req.Text)
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, p)
}

// RegeneratePageImage asks the illustrator for a fresh image from the page's
// current text and swaps the reference. The old artifact stays in storage.
func (h *Handler) RegeneratePageImage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	page, err := h.Projects.FindPage(c.Request.Context(), uid, c.Param("id"), c.Param("page_id"))
	if err != nil {
		h.failProjectErr(c, err)
		return
	}

	ref, err := h.Illustrator.Generate(c.Request.Context(), page.Text)
	if err != nil {
		h.Log.Error().Err(err).Str("page_id", page.ID).Msg("regenerate image failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	p, err := h.Projects.ReplacePageImage(c.Request.Context(), uid, c.Param("id"), page.ID, ref)
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, p)
}

// UpscalePageImage replaces the page's reference with an upscaled rendition.
func (h *Handler) UpscalePageImage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	page, err := h.Projects.FindPage(c.Request.Context(), uid, c.Param("id"), c.Param("page_id"))
	if err != nil {
		h.failProjectErr(c, err)
		return
	}

	ref, err := h.Illustrator.Upscale(c.Request.Context(), page.Image)
	if err != nil {
		h.Log.Error().Err(err).Str("page_id", page.ID).Msg("upscale image failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	p, err := h.Projects.ReplacePageImage(c.Request.Context(), uid, c.Param("id"), page.ID, ref)
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, p)
}

// UploadPageImage stores an uploaded image and points the page at it.
func (h *Handler) UploadPageImage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	page, err := h.Projects.FindPage(c.Request.Context(), uid, c.Param("id"), c.Param("page_id"))
	if err != nil {
		h.failProjectErr(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "please upload a file")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		common.Fail(c, http.StatusBadRequest, 10006, "only image uploads are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	ref, err := h.Store.Store(c.Request.Context(), name, data, contentType)
	if err != nil {
		h.Log.Error().Err(err).Msg("store uploaded image failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	p, err := h.Projects.ReplacePageImage(c.Request.Context(), uid, c.Param("id"), page.ID, ref)
	if err != nil {
		h.failProjectErr(c, err)
		return
	}
	common.Ok(c, p)
}
