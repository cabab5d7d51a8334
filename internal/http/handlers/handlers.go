// Package handlers exposes the form engine over HTTP.
//
// Handlers are transport-thin: they parse and bound inputs, call the
// application services, and translate results and errors into responses.
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-form-engine/internal/domain"
	"github.com/tbourn/go-form-engine/internal/http/middleware"
	"github.com/tbourn/go-form-engine/internal/repo"
	"github.com/tbourn/go-form-engine/internal/schema"
	"github.com/tbourn/go-form-engine/internal/services"
	"github.com/tbourn/go-form-engine/internal/utils"
)

// FormService manages form definitions.
type FormService interface {
	Create(ctx context.Context, in services.FormInput) (*services.FormDefinition, error)
	Get(ctx context.Context, id uint64) (*services.FormDefinition, error)
	GetBySlug(ctx context.Context, slug string) (*services.FormDefinition, error)
	Schema(ctx context.Context, id uint64) (schema.FormSchema, error)
	List(ctx context.Context) ([]domain.Form, error)
	Update(ctx context.Context, id uint64, in services.FormInput) (*services.FormDefinition, error)
	Delete(ctx context.Context, id uint64) error
}

// SubmissionService accepts and queries submissions.
type SubmissionService interface {
	Submit(ctx context.Context, in services.SubmitInput) (services.SubmitResult, error)
	List(ctx context.Context, f repo.SubmissionFilter) ([]domain.Submission, int64, error)
	Find(ctx context.Context, id uint64) (*domain.Submission, bool, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	Stats(ctx context.Context, f repo.SubmissionFilter) (int64, uint64, error)
	Export(ctx context.Context, f repo.SubmissionFilter, w io.Writer) (int, error)
}

// SettingsService reads and writes notifier settings.
type SettingsService interface {
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, values map[string]string) (map[string]string, error)
}

// Handlers groups the API endpoints.
type Handlers struct {
	forms       FormService
	submissions SubmissionService
	settings    SettingsService
}

// New constructs Handlers bound to the given services.
func New(forms FormService, submissions SubmissionService, settings SettingsService) *Handlers {
	return &Handlers{forms: forms, submissions: submissions, settings: settings}
}

// Pagination carries paging metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

const (
	defaultPageSize = repo.DefaultListLimit
	maxPageSize     = 100
)

func clampPagination(c *gin.Context) utils.Page {
	return utils.ClampPage(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}

func paginationOf(p utils.Page, total int64) Pagination {
	pages := utils.TotalPages(total, p.Size)
	return Pagination{
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Number < pages,
	}
}

// pathID parses the :id route parameter, answering 400 when it is not a
// positive integer.
func pathID(c *gin.Context, what string) (uint64, bool) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, what+" id must be a positive integer")
		return 0, false
	}
	return id, true
}

func idempotencyKey(c *gin.Context) string {
	k, _ := middleware.GetIdempotencyKey(c)
	return k
}
