// Submission HTTP handlers.
//
//   - POST   /forms/{id}/submissions  (submit)
//   - GET    /submissions             (list, paginated, ETag support)
//   - GET    /submissions/export      (CSV download)
//   - GET    /submissions/{id}        (view)
//   - DELETE /submissions/{id}        (delete)
//
// Submissions accept either a flat JSON object or a urlencoded/multipart form
// body. Repeated form keys and JSON arrays are joined with ", ".
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-form-engine/internal/domain"
	"github.com/tbourn/go-form-engine/internal/export"
	"github.com/tbourn/go-form-engine/internal/repo"
	"github.com/tbourn/go-form-engine/internal/services"
	"github.com/tbourn/go-form-engine/internal/utils"
)

// SubmitResponse reports the id of the stored submission.
type SubmitResponse struct {
	SubmissionID uint64 `json:"submission_id" example:"42"`
}

// ListSubmissionsResponse is one page of submissions.
type ListSubmissionsResponse struct {
	Submissions []domain.Submission `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

const maxMultipartMemory = 1 << 20

var errNestedValue = errors.New("nested objects are not accepted")

// Submit godoc
// @ID          submitForm
// @Summary     Submit a form
// @Description Validates the posted values against the form's schema, stores them,
// @Description and notifies every enabled channel. Supports safe retries through
// @Description the Idempotency-Key header; a replay answers with the original id
// @Description and `Idempotency-Replayed: true`.
// @Tags        Submissions
// @Accept      json
// @Accept      x-www-form-urlencoded
// @Produce     json
// @Param       id               path    int     true   "Form ID"  minimum(1)
// @Param       Idempotency-Key  header  string  false  "Key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    object  true   "Field id to value"
// @Success     201  {object}  handlers.SubmitResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     404  {object}  handlers.ErrorResponse  "Form not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Could not save"
// @Router      /forms/{id}/submissions [post]
func (h *Handlers) Submit(c *gin.Context) {
	formID, valid := pathID(c, "form")
	if !valid {
		return
	}
	values, err := readValues(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid submission body")
		return
	}

	res, err := h.submissions.Submit(c.Request.Context(), services.SubmitInput{
		FormID:         formID,
		Values:         values,
		IPAddress:      c.ClientIP(),
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			failValidation(c, verr.Errors)
		case errors.Is(err, services.ErrFormNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "form not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, msgSubmitFailed, err)
		}
		return
	}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusCreated, SubmitResponse{SubmissionID: res.SubmissionID})
}

// ListSubmissions godoc
// @ID          listSubmissions
// @Summary     List submissions
// @Description Newest first by default. Supports a weak ETag via If-None-Match.
// @Tags        Submissions
// @Produce     json
// @Param       form_id        query   int     false  "Only this form"  minimum(1)
// @Param       s              query   string  false  "Substring of the stored values"
// @Param       order_by       query   string  false  "Sort column"  Enums(created_at, id, form_id)
// @Param       order          query   string  false  "Direction"    Enums(asc, desc)
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListSubmissionsResponse
// @Header      200  {string}  ETag  "Weak ETag for the current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /submissions [get]
func (h *Handlers) ListSubmissions(c *gin.Context) {
	ctx := c.Request.Context()
	f, valid := submissionFilter(c)
	if !valid {
		return
	}
	page := clampPagination(c)
	f.Limit, f.Offset = page.Size, page.Offset()

	if count, maxID, err := h.submissions.Stats(ctx, f); err == nil {
		etag := fmt.Sprintf(`W/"submissions:%d:%d:%x"`, count, maxID, filterHash(f))
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.submissions.List(ctx, f)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, msgInternal, err)
		return
	}
	ok(c, http.StatusOK, ListSubmissionsResponse{
		Submissions: items,
		Pagination:  paginationOf(page, total),
	})
}

// ExportSubmissions godoc
// @ID          exportSubmissions
// @Summary     Export submissions as CSV
// @Description UTF-8 with BOM. Columns are the metadata columns followed by the union
// @Description of every value key. Row count is capped server-side.
// @Tags        Submissions
// @Produce     text/csv
// @Param       form_id   query  int     false  "Only this form"  minimum(1)
// @Param       s         query  string  false  "Substring of the stored values"
// @Param       order_by  query  string  false  "Sort column"  Enums(created_at, id, form_id)
// @Param       order     query  string  false  "Direction"    Enums(asc, desc)
// @Success     200  {string}  string  "CSV file"
// @Header      200  {string}  Content-Disposition  "attachment; filename=submissions-....csv"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /submissions/export [get]
func (h *Handlers) ExportSubmissions(c *gin.Context) {
	f, valid := submissionFilter(c)
	if !valid {
		return
	}
	var buf bytes.Buffer
	n, err := h.submissions.Export(c.Request.Context(), f, &buf)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, msgInternal, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(n))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// GetSubmission godoc
// @ID          getSubmission
// @Summary     View a submission
// @Tags        Submissions
// @Produce     json
// @Param       id   path      int  true  "Submission ID"  minimum(1)
// @Success     200  {object}  domain.Submission
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Submission not found"
// @Router      /submissions/{id} [get]
func (h *Handlers) GetSubmission(c *gin.Context) {
	id, valid := pathID(c, "submission")
	if !valid {
		return
	}
	sub, found, err := h.submissions.Find(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "submission not found")
		return
	}
	ok(c, http.StatusOK, sub)
}

// DeleteSubmission godoc
// @ID          deleteSubmission
// @Summary     Delete a submission
// @Description Deleting an unknown id succeeds.
// @Tags        Submissions
// @Param       id   path  int  true  "Submission ID"  minimum(1)
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /submissions/{id} [delete]
func (h *Handlers) DeleteSubmission(c *gin.Context) {
	id, valid := pathID(c, "submission")
	if !valid {
		return
	}
	if _, err := h.submissions.Delete(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, msgInternal, err)
		return
	}
	noContent(c)
}

func submissionFilter(c *gin.Context) (repo.SubmissionFilter, bool) {
	f := repo.SubmissionFilter{
		Search:  strings.TrimSpace(c.Query("s")),
		OrderBy: c.Query("order_by"),
		Order:   c.Query("order"),
	}
	if raw := c.Query("form_id"); raw != "" {
		id, valid := utils.ParseID(raw)
		if !valid {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "form_id must be a positive integer")
			return f, false
		}
		f.FormID = id
	}
	return f, true
}

// filterHash folds everything that shapes a listing into the ETag.
func filterHash(f repo.SubmissionFilter) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d|%s|%s|%s|%d|%d", f.FormID, f.Search, f.SortColumn(), f.SortDirection(), f.Limit, f.Offset)
	return h.Sum32()
}

// readValues extracts field values from a JSON object or a form body.
func readValues(c *gin.Context) (map[string]string, error) {
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		err := c.Request.ParseMultipartForm(maxMultipartMemory)
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		out := make(map[string]string, len(c.Request.PostForm))
		for k, vs := range c.Request.PostForm {
			out[k] = strings.Join(vs, ", ")
		}
		return out, nil
	}

	var raw map[string]any
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := flatten(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

func flatten(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "1", nil
		}
		return "", nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if _, isList := e.([]any); isList {
				return "", errNestedValue
			}
			s, err := flatten(e)
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), nil
	default:
		return "", errNestedValue
	}
}
