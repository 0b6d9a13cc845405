package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fablesmith/storyforge/internal/auth"
	"github.com/fablesmith/storyforge/internal/config"
	"github.com/fablesmith/storyforge/internal/httpapi"
	"github.com/fablesmith/storyforge/internal/httpapi/handlers"
	"github.com/fablesmith/storyforge/internal/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg := config.Config{AppEnv: "test", JWTSecret: "test-secret"}
	log := zerolog.Nop()
	h := handlers.NewHandler(db, cfg, log, nil, nil, nil, nil, nil, nil, nil)
	return httpapi.NewRouter(h, cfg, log), db, cfg
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	r, _, _ := newTestRouter(t)

	reg := map[string]string{
		"email":        "jo@example.com",
		"password":     "hunter2hunter2",
		"display_name": "Jo",
	}
	if w := doJSON(t, r, http.MethodPost, "/users/register", "", reg); w.Code != http.StatusOK {
		t.Fatalf("register status = %d body=%s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/users/register", "", reg); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d body=%s", w.Code, w.Body.String())
	}

	login := map[string]string{"email": "jo@example.com", "password": "hunter2hunter2"}
	w := doJSON(t, r, http.MethodPost, "/users/login", "", login)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Data.Token == "" {
		t.Fatal("login returned no token")
	}

	if w := doJSON(t, r, http.MethodGet, "/me", resp.Data.Token, nil); w.Code != http.StatusOK {
		t.Fatalf("me status = %d body=%s", w.Code, w.Body.String())
	}

	bad := map[string]string{"email": "jo@example.com", "password": "wrong-password"}
	if w := doJSON(t, r, http.MethodPost, "/users/login", "", bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", w.Code)
	}
}

func TestListUsers_AdminOnly(t *testing.T) {
	r, db, cfg := newTestRouter(t)

	hash, err := auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	reader := models.User{Email: "r@example.com", PasswordHash: hash, DisplayName: "R", Role: models.RoleReader}
	admin := models.User{Email: "a@example.com", PasswordHash: hash, DisplayName: "A", Role: models.RoleAdmin}
	if err := db.Create(&reader).Error; err != nil {
		t.Fatalf("create reader: %v", err)
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	readerTok, _ := auth.IssueToken(cfg.JWTSecret, &reader)
	adminTok, _ := auth.IssueToken(cfg.JWTSecret, &admin)

	if w := doJSON(t, r, http.MethodGet, "/users", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/users", readerTok, nil); w.Code != http.StatusForbidden {
		t.Fatalf("reader status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/users", adminTok, nil); w.Code != http.StatusOK {
		t.Fatalf("admin status = %d body=%s", w.Code, w.Body.String())
	}
}
