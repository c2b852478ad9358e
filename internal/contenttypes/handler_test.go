package contenttypes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/GyroZepelix/mithril-admin/internal/database"
)

func newTestRouter(store Store) chi.Router {
	h := NewHandler(NewService(store))
	r := chi.NewRouter()
	r.Get("/models", h.List)
	r.Post("/models", h.Create)
	r.Get("/models/by-identifier/{apiIdentifier}", h.GetByIdentifier)
	r.Get("/models/{id}", h.Get)
	r.Put("/models/{id}", h.Update)
	r.Delete("/models/{id}", h.Delete)
	r.Put("/models/{id}/field-order", h.ReorderFields)
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

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body %q: %v", rr.Body.String(), err)
	}
	return resp.Error.Code
}

const createBody = `{
	"name": "Blog Post",
	"fields": [
		{"name": "Title", "field_type": "short_text", "required": true},
		{"name": "Slides", "field_type": "array", "options": {"item_fields": [
			{"name": "Caption", "field_type": "short_text"}
		]}}
	]
}`

func TestHandler_CreateAndGet(t *testing.T) {
	r := newTestRouter(&memStore{})

	rr := do(t, r, http.MethodPost, "/models", createBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}
	var created struct {
		Data struct {
			ID            string `json:"id"`
			APIIdentifier string `json:"api_identifier"`
			Fields        []struct {
				APIIdentifier string `json:"api_identifier"`
				Options       struct {
					ItemFields []struct {
						APIIdentifier string `json:"api_identifier"`
					} `json:"item_fields"`
				} `json:"options"`
			} `json:"fields"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if created.Data.APIIdentifier != "blog_post" {
		t.Errorf("api_identifier = %q, want %q", created.Data.APIIdentifier, "blog_post")
	}
	if got := created.Data.Fields[1].Options.ItemFields[0].APIIdentifier; got != "caption" {
		t.Errorf("item field identifier = %q, want %q", got, "caption")
	}

	rr = do(t, r, http.MethodGet, "/models/"+created.Data.ID, "")
	if rr.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", rr.Code)
	}
	rr = do(t, r, http.MethodGet, "/models/by-identifier/blog_post", "")
	if rr.Code != http.StatusOK {
		t.Errorf("get by identifier status = %d, want 200", rr.Code)
	}
}

func TestHandler_Create_NestedArrayRejectedAtDecode(t *testing.T) {
	r := newTestRouter(&memStore{})

	body := `{"name": "Gallery", "fields": [{"name": "Rows", "field_type": "array", "options": {"item_fields": [
		{"name": "Inner", "field_type": "array"}
	]}}]}`
	rr := do(t, r, http.MethodPost, "/models", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if code := errorCode(t, rr); code != "INVALID_JSON" {
		t.Errorf("code = %q, want INVALID_JSON", code)
	}
}

func TestHandler_Create_ValidationDetails(t *testing.T) {
	r := newTestRouter(&memStore{})

	rr := do(t, r, http.MethodPost, "/models", `{"name": "", "fields": [{"name": "X", "field_type": "color"}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details []struct {
				Field string `json:"field"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", resp.Error.Code)
	}
	if len(resp.Error.Details) < 2 {
		t.Errorf("details = %+v, want every problem listed", resp.Error.Details)
	}
}

func TestHandler_StorageConflictIsGenericSaveFailure(t *testing.T) {
	r := newTestRouter(&memStore{failCreate: ErrConflict})

	rr := do(t, r, http.MethodPost, "/models", createBody)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
	if code := errorCode(t, rr); code != "SAVE_FAILED" {
		t.Errorf("code = %q, want SAVE_FAILED", code)
	}
}

func TestHandler_NotConfigured(t *testing.T) {
	r := newTestRouter(NewRepository(nil))

	rr := do(t, r, http.MethodGet, "/models", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if code := errorCode(t, rr); code != "NOT_CONFIGURED" {
		t.Errorf("code = %q, want NOT_CONFIGURED", code)
	}
	if _, err := NewRepository(&database.DB{}).List(context.Background()); err != database.ErrNotConfigured {
		t.Errorf("zero DB List() error = %v, want ErrNotConfigured", err)
	}
}

func TestHandler_InvalidID(t *testing.T) {
	r := newTestRouter(&memStore{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rr := do(t, r, method, "/models/not-a-uuid", `{}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", method, rr.Code)
		}
	}
}

func TestHandler_NotFound(t *testing.T) {
	r := newTestRouter(&memStore{})

	rr := do(t, r, http.MethodGet, "/models/00000000-0000-0000-0000-000000000000", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
