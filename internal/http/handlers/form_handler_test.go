package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/tbourn/go-form-engine/internal/schema"
	"github.com/tbourn/go-form-engine/internal/services"
)

func TestCreateForm_DefaultsAndConflicts(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/forms", map[string]any{"title": "Quote Request"})
	if w.Code != http.StatusCreated {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	def := decode[services.FormDefinition](t, w)
	if def.Slug != "quote-request" {
		t.Fatalf("slug = %q", def.Slug)
	}
	if len(def.Schema.Fields) != len(schema.DefaultSchema().Fields) {
		t.Fatalf("expected default fields, got %+v", def.Schema.Fields)
	}

	if w := api.do(http.MethodPost, "/forms", map[string]any{"title": "Other", "slug": "quote-request"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate slug: %d", w.Code)
	}
	if w := api.do(http.MethodPost, "/forms", map[string]any{"title": "  "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank title: %d", w.Code)
	}
	if w := api.do(http.MethodPost, "/forms", "{"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", w.Code)
	}
}

func TestFormLifecycle(t *testing.T) {
	api := newTestAPI(t)
	id := api.contactForm(t)
	path := fmt.Sprintf("/forms/%d", id)

	if w := api.do(http.MethodGet, path, nil); w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	if w := api.do(http.MethodGet, "/forms/slug/contact", nil); w.Code != http.StatusOK {
		t.Fatalf("get by slug: %d", w.Code)
	}

	w := api.do(http.MethodPut, path, map[string]any{
		"fields": []map[string]any{{"id": "phone", "type": "text", "label": "Phone"}},
		"logic":  []any{map[string]any{"when": "phone"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	def := decode[services.FormDefinition](t, w)
	if def.Title != "Contact" || len(def.Schema.Fields) != 1 || def.Schema.Fields[0].ID != "phone" {
		t.Fatalf("update result: %+v", def)
	}

	sch := decode[schema.FormSchema](t, api.do(http.MethodGet, path+"/schema", nil))
	if len(sch.Fields) != 1 || len(sch.Logic) != 1 {
		t.Fatalf("schema: %+v", sch)
	}

	list := decode[ListFormsResponse](t, api.do(http.MethodGet, "/forms", nil))
	if len(list.Forms) != 1 {
		t.Fatalf("list: %+v", list)
	}

	if w := api.do(http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	for _, p := range []string{path, path + "/schema"} {
		if w := api.do(http.MethodGet, p, nil); w.Code != http.StatusNotFound {
			t.Fatalf("GET %s after delete: %d", p, w.Code)
		}
	}
	if w := api.do(http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
	if w := api.do(http.MethodPut, "/forms/x", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}
}
