package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fablesmith/storyforge/internal/auth"
	"github.com/fablesmith/storyforge/internal/common"
	"github.com/fablesmith/storyforge/internal/models"
	"github.com/fablesmith/storyforge/internal/store/redisstore"
)

type registerReq struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	u := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Role:         models.RoleReader,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			common.Fail(c, http.StatusConflict, 40901, "email already registered")
			return
		}
		h.Log.Error().Err(err).Msg("create user failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	common.Ok(c, gin.H{"id": u.ID, "email": u.Email})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var u models.User
	err := h.DB.WithContext(c.Request.Context()).
		Where("email = ?", req.Email).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(u.PasswordHash, req.Password)) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid credentials")
		return
	}
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	token, err := auth.IssueToken(h.Cfg.JWTSecret, &u)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.Ok(c, gin.H{"token": token, "user": u})
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var u models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&u, uid).Error; err != nil {
		common.Fail(c, http.StatusNotFound, 40001, "user not found")
		return
	}
	common.Ok(c, u)
}

type updateMeReq struct {
	DisplayName string `json:"display_name" binding:"required"`
}

func (h *Handler) UpdateMe(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	var req updateMeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", uid).
		Update("display_name", req.DisplayName).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.Ok(c, gin.H{"display_name": req.DisplayName})
}

// ListUsers is admin only (enforced by route middleware).
func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.WithContext(c.Request.Context()).Order("id ASC").Find(&users).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.Ok(c, gin.H{"users": users})
}

type forgotPasswordReq struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword always answers 200 so callers cannot probe which emails
// have accounts.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var u models.User
	err := h.DB.WithContext(c.Request.Context()).
		Where("email = ?", req.Email).
		First(&u).Error
	if err == nil {
		token, tokenErr := newResetToken()
		if tokenErr == nil {
			uid := strconv.FormatUint(u.ID, 10)
			if err := h.Redis.SetResetToken(c.Request.Context(), token, uid); err == nil {
				if err := h.Mail.Send(u.Email, "Reset your StoryForge password",
					"Use this token to reset your password: "+token+"\n\nIt expires in 15 minutes."); err != nil {
					h.Log.Warn().Err(err).Msg("reset mail failed")
				}
			}
		}
	}

	common.Ok(c, gin.H{"message": "if the account exists, a reset email was sent"})
}

func newResetToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type resetPasswordReq struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	uidStr, err := h.Redis.ConsumeResetToken(c.Request.Context(), req.Token)
	if errors.Is(err, redisstore.ErrTokenNotFound) {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid or expired token")
		return
	}
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", uidStr).
		Update("password_hash", hash).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	common.Ok(c, gin.H{"message": "password updated"})
}
