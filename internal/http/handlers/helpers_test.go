package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-form-engine/internal/events"
	"github.com/tbourn/go-form-engine/internal/http/middleware"
	"github.com/tbourn/go-form-engine/internal/notify"
	"github.com/tbourn/go-form-engine/internal/repo"
	"github.com/tbourn/go-form-engine/internal/services"
)

type testAPI struct {
	r     *gin.Engine
	db    *gorm.DB
	forms *services.FormService

	mu        sync.Mutex
	published []events.SubmissionCreatedEvent
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{db: newTestDB(t)}
	bus := events.NewBus(zerolog.Nop())
	bus.Subscribe(events.SubmissionCreated, func(_ context.Context, e events.Event) {
		api.mu.Lock()
		defer api.mu.Unlock()
		api.published = append(api.published, e.(events.SubmissionCreatedEvent))
	})

	api.forms = services.NewFormService(api.db, services.GormRepo{}, zerolog.Nop())
	subs := services.NewSubmissionService(api.db, services.GormRepo{}, api.forms, bus, zerolog.Nop())
	dispatcher := notify.NewDispatcher(zerolog.Nop(), notify.DefaultTimeout)
	settings := services.NewSettingsService(api.db, services.GormRepo{}, dispatcher, notify.Deps{}, zerolog.Nop())

	h := New(api.forms, subs, settings)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/forms", h.CreateForm)
	r.GET("/forms", h.ListForms)
	r.GET("/forms/slug/:slug", h.GetFormBySlug)
	r.GET("/forms/:id", h.GetForm)
	r.PUT("/forms/:id", h.UpdateForm)
	r.DELETE("/forms/:id", h.DeleteForm)
	r.GET("/forms/:id/schema", h.GetFormSchema)
	r.POST("/forms/:id/submissions", middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil), h.Submit)
	r.GET("/submissions", h.ListSubmissions)
	r.GET("/submissions/export", h.ExportSubmissions)
	r.GET("/submissions/:id", h.GetSubmission)
	r.DELETE("/submissions/:id", h.DeleteSubmission)
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
	api.r = r
	return api
}

func (a *testAPI) do(method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	req.RemoteAddr = "203.0.113.5:5555"
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func (a *testAPI) events() []events.SubmissionCreatedEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]events.SubmissionCreatedEvent(nil), a.published...)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

// contactForm creates a form with a required name, an email and a message.
func (a *testAPI) contactForm(t *testing.T) uint64 {
	t.Helper()
	w := a.do(http.MethodPost, "/forms", map[string]any{
		"title": "Contact",
		"fields": []map[string]any{
			{"id": "name", "type": "text", "label": "Name", "required": true},
			{"id": "email", "type": "email", "label": "Email", "required": true},
			{"id": "message", "type": "textarea", "label": "Message"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create form: %d %s", w.Code, w.Body.String())
	}
	return decode[services.FormDefinition](t, w).ID
}
