package content

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

func newTestRouter(svc *Service) chi.Router {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/entries", h.List)
	r.Post("/entries", h.Create)
	r.Post("/entries/validate", h.Validate)
	r.Get("/entries/{id}", h.Get)
	r.Put("/entries/{id}", h.Update)
	r.Delete("/entries/{id}", h.Delete)
	r.Get("/entries/{id}/export", h.Export)
	r.Get("/entries/{id}/form", h.EntryForm)
	r.Get("/models/{id}/form", h.ModelForm)
	r.Get("/models/{id}/reference-options", h.ReferenceOptions)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

type errorEnvelope struct {
	Error struct {
		Code    string              `json:"code"`
		Details []schema.FieldError `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var resp errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body %q: %v", rr.Body.String(), err)
	}
	return resp
}

const createPostBody = `{
	"content_model_id": "` + postModelID + `",
	"status": "published",
	"fields": {
		"title": "Hello",
		"rating": "3",
		"gallery": [{"caption": "first"}]
	}
}`

func TestHandler_CreateAndGet(t *testing.T) {
	svc, _, _ := newTestService(PolicyRetain)
	r := newTestRouter(svc)

	rr := do(t, r, http.MethodPost, "/entries", createPostBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}
	var created struct {
		Data Entry `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if created.Data.Status != StatusPublished || created.Data.PublishedAt == nil {
		t.Errorf("entry = %+v, want published with published_at", created.Data)
	}
	if n, _ := created.Data.Fields["rating"].AsNumber(); n != 3 {
		t.Errorf("rating = %v, want 3", created.Data.Fields["rating"])
	}

	rr = do(t, r, http.MethodGet, "/entries/"+created.Data.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rr.Code)
	}
}

func TestHandler_CreateValidationError(t *testing.T) {
	svc, _, _ := newTestService(PolicyRetain)
	r := newTestRouter(svc)

	body := `{"content_model_id": "` + postModelID + `", "fields": {"gallery": []}}`
	rr := do(t, r, http.MethodPost, "/entries", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", resp.Error.Code)
	}
	if len(resp.Error.Details) != 2 {
		t.Fatalf("details = %v, want title and gallery", resp.Error.Details)
	}
	if resp.Error.Details[1].Message != "Gallery must have at least one item" {
		t.Errorf("details[1] = %q", resp.Error.Details[1].Message)
	}
}

func TestHandler_UnknownModel(t *testing.T) {
	svc, _, _ := newTestService(PolicyRetain)
	r := newTestRouter(svc)

	rr := do(t, r, http.MethodGet, "/models/"+missingID+"/form", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHandler_InvalidID(t *testing.T) {
	svc, _, _ := newTestService(PolicyRetain)
	r := newTestRouter(svc)

	for _, path := range []string{"/entries/abc", "/entries/abc/export", "/entries/abc/form", "/models/abc/form"} {
		rr := do(t, r, http.MethodGet, path, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, rr.Code)
			continue
		}
		if code := decodeError(t, rr).Error.Code; code != "INVALID_ID" {
			t.Errorf("GET %s code = %q, want INVALID_ID", path, code)
		}
	}
}

func TestHandler_NotFound(t *testing.T) {
	svc, _, _ := newTestService(PolicyRetain)
	r := newTestRouter(svc)

	if rr := do(t, r, http.MethodGet, "/entries/"+missingID, ""); rr.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", rr.Code)
	}
	if rr := do(t, r, http.MethodDelete, "/entries/"+missingID, ""); rr.Code != http.StatusNotFound {
		t.Errorf("delete status = %d, want 404", rr.Code)
	}
}

func TestHandler_ListPaginates(t *testing.T) {
	svc, _, _ := newTestService(PolicyRetain)
	r := newTestRouter(svc)

	for i := 0; i < 3; i++ {
		if rr := do(t, r, http.MethodPost, "/entries", createPostBody); rr.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rr.Code)
		}
	}

	rr := do(t, r, http.MethodGet, "/entries?per_page=2&model="+postModelID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Data []Entry `json:"data"`
		Meta struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(resp.Data) != 2 || resp.Meta.Total != 3 || resp.Meta.TotalPages != 2 {
		t.Errorf("got %d entries, meta %+v; want 2 entries, total 3, 2 pages", len(resp.Data), resp.Meta)
	}

	if rr := do(t, r, http.MethodGet, "/entries?status=gone", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid status filter = %d, want 400", rr.Code)
	}
}

func TestHandler_Validate(t *testing.T) {
	svc, _, _ := newTestService(PolicyRetain)
	r := newTestRouter(svc)

	body := `{"content_model_id": "` + postModelID + `", "fields": {"title": "x"}}`
	rr := do(t, r, http.MethodPost, "/entries/validate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Data ValidationResult `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Data.Valid || len(resp.Data.Errors) != 1 {
		t.Errorf("result = %+v, want one error", resp.Data)
	}
}

func TestHandler_ReferenceOptions(t *testing.T) {
	svc, _, _ := newTestService(PolicyRetain)
	r := newTestRouter(svc)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"reference field", "?field=author", http.StatusOK},
		{"missing target model", "?field=related", http.StatusOK},
		{"not a reference field", "?field=title", http.StatusBadRequest},
		{"no field", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, r, http.MethodGet, "/models/"+postModelID+"/reference-options"+tt.query, "")
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestHandler_NotConfigured(t *testing.T) {
	svc := NewService(NewRepository(nil), &fakeModels{}, nil, PolicyRetain)
	r := newTestRouter(svc)

	rr := do(t, r, http.MethodGet, "/entries", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if code := decodeError(t, rr).Error.Code; code != "NOT_CONFIGURED" {
		t.Errorf("code = %q, want NOT_CONFIGURED", code)
	}
}
