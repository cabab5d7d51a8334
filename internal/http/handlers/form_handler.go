// Form HTTP handlers.
//
//   - POST   /forms              (create)
//   - GET    /forms              (list)
//   - GET    /forms/slug/{slug}  (lookup by slug)
//   - GET    /forms/{id}         (definition)
//   - PUT    /forms/{id}         (save)
//   - DELETE /forms/{id}         (delete; submissions survive)
//   - GET    /forms/{id}/schema  (resolved schema)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-form-engine/internal/domain"
	"github.com/tbourn/go-form-engine/internal/services"
)

// ListFormsResponse wraps the stored forms.
type ListFormsResponse struct {
	Forms []domain.Form `json:"forms"`
}

// CreateForm godoc
// @ID          createForm
// @Summary     Create a form
// @Description Stores a new form. The slug is derived from the title when blank.
// @Description Omitting fields yields the default Name/Email/Message schema.
// @Tags        Forms
// @Accept      json
// @Produce     json
// @Param       body  body      services.FormInput  true  "Form definition"
// @Success     201   {object}  services.FormDefinition
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409   {object}  handlers.ErrorResponse  "Slug already in use"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forms [post]
func (h *Handlers) CreateForm(c *gin.Context) {
	var in services.FormInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	def, err := h.forms.Create(c.Request.Context(), in)
	if err != nil {
		h.formError(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, def)
}

// ListForms godoc
// @ID          listForms
// @Summary     List forms
// @Tags        Forms
// @Produce     json
// @Success     200  {object}  handlers.ListFormsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forms [get]
func (h *Handlers) ListForms(c *gin.Context) {
	items, err := h.forms.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, msgInternal, err)
		return
	}
	ok(c, http.StatusOK, ListFormsResponse{Forms: items})
}

// GetForm godoc
// @ID          getForm
// @Summary     Get a form definition
// @Tags        Forms
// @Produce     json
// @Param       id   path      int  true  "Form ID"  minimum(1)
// @Success     200  {object}  services.FormDefinition
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Form not found"
// @Router      /forms/{id} [get]
func (h *Handlers) GetForm(c *gin.Context) {
	id, valid := pathID(c, "form")
	if !valid {
		return
	}
	def, err := h.forms.Get(c.Request.Context(), id)
	if err != nil {
		h.formError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, def)
}

// GetFormBySlug godoc
// @ID          getFormBySlug
// @Summary     Get a form by slug
// @Tags        Forms
// @Produce     json
// @Param       slug  path      string  true  "Form slug"  example(contact-form)
// @Success     200   {object}  services.FormDefinition
// @Failure     404   {object}  handlers.ErrorResponse  "Form not found"
// @Router      /forms/slug/{slug} [get]
func (h *Handlers) GetFormBySlug(c *gin.Context) {
	def, err := h.forms.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.formError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, def)
}

// GetFormSchema godoc
// @ID          getFormSchema
// @Summary     Get the resolved schema of a form
// @Description Malformed stored definitions resolve to the default schema.
// @Tags        Forms
// @Produce     json
// @Param       id   path      int  true  "Form ID"  minimum(1)
// @Success     200  {object}  schema.FormSchema
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Form not found"
// @Router      /forms/{id}/schema [get]
func (h *Handlers) GetFormSchema(c *gin.Context) {
	id, valid := pathID(c, "form")
	if !valid {
		return
	}
	sch, err := h.forms.Schema(c.Request.Context(), id)
	if err != nil {
		h.formError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, sch)
}

// UpdateForm godoc
// @ID          updateForm
// @Summary     Save a form
// @Description Field rows replace the stored field list entirely. Omitted logic
// @Description and integrations keep their stored values.
// @Tags        Forms
// @Accept      json
// @Produce     json
// @Param       id    path      int                 true  "Form ID"  minimum(1)
// @Param       body  body      services.FormInput  true  "Form definition"
// @Success     200   {object}  services.FormDefinition
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404   {object}  handlers.ErrorResponse  "Form not found"
// @Failure     409   {object}  handlers.ErrorResponse  "Slug already in use"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forms/{id} [put]
func (h *Handlers) UpdateForm(c *gin.Context) {
	id, valid := pathID(c, "form")
	if !valid {
		return
	}
	var in services.FormInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	def, err := h.forms.Update(c.Request.Context(), id, in)
	if err != nil {
		h.formError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, def)
}

// DeleteForm godoc
// @ID          deleteForm
// @Summary     Delete a form
// @Description Stored submissions of the form are kept.
// @Tags        Forms
// @Param       id   path  int  true  "Form ID"  minimum(1)
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Form not found"
// @Router      /forms/{id} [delete]
func (h *Handlers) DeleteForm(c *gin.Context) {
	id, valid := pathID(c, "form")
	if !valid {
		return
	}
	if err := h.forms.Delete(c.Request.Context(), id); err != nil {
		h.formError(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}

func (h *Handlers) formError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrFormNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "form not found")
	case errors.Is(err, services.ErrTitleRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title or slug is required")
	case errors.Is(err, services.ErrSlugTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "slug already in use")
	default:
		fail(c, http.StatusInternalServerError, fallback, msgInternal, err)
	}
}
