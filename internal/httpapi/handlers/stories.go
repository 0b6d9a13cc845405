package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fablesmith/storyforge/internal/common"
	"github.com/fablesmith/storyforge/internal/story"
)

// CreateStory accepts the thematic parameters and answers 202 with a job id;
// generation continues after this handler has returned.
func (h *Handler) CreateStory(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var params story.Params
	if err := c.ShouldBindJSON(&params); err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "missing required story parameters")
		return
	}

	jobID, err := h.Pipeline.Submit(uid, params)
	if err != nil {
		if errors.Is(err, story.ErrInvalidParams) {
			common.Fail(c, http.StatusBadRequest, 10003, "missing required story parameters")
			return
		}
		h.Log.Error().Err(err).Msg("submit story job failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"code":    0,
		"message": "accepted",
		"data":    gin.H{"job_id": jobID},
	})
}

// GetStoryStatus polls a job. Completed jobs carry signed page-image URLs;
// a URL-signing failure is reported as a retrieval error, not a job failure.
func (h *Handler) GetStoryStatus(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	jobID := c.Param("job_id")
	job, err := h.Pipeline.Status(c.Request.Context(), uid, jobID)
	if err != nil {
		if errors.Is(err, story.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40002, "job not found")
			return
		}
		h.Log.Error().Err(err).Str("job_id", jobID).Msg("resolve story images failed")
		common.Fail(c, http.StatusInternalServerError, 50002, "error retrieving story images")
		return
	}

	common.Ok(c, job)
}
