package content

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ParseListQuery extracts the entry list filter from the request URL:
// page, per_page (capped at 100), model, status and q.
func ParseListQuery(r *http.Request) (EntryFilter, error) {
	f := EntryFilter{
		Page:    1,
		PerPage: defaultPerPage,
	}

	query := r.URL.Query()

	if v := query.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return f, fmt.Errorf("page must be a positive integer")
		}
		f.Page = page
	}

	if v := query.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 {
			return f, fmt.Errorf("per_page must be a positive integer")
		}
		if perPage > maxPerPage {
			perPage = maxPerPage
		}
		f.PerPage = perPage
	}

	if v := query.Get("model"); v != "" {
		if !schema.IsUUID(v) {
			return f, fmt.Errorf("model must be a valid UUID")
		}
		f.ModelID = v
	}

	if v := query.Get("status"); v != "" {
		s := Status(v)
		if !s.Valid() {
			return f, fmt.Errorf("status must be one of draft, published, archived")
		}
		f.Status = s
	}

	f.Search = query.Get("q")

	return f, nil
}
