package transport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// pathID parses a UUID URL parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// queryPage reads page and page_size query parameters, leaving zero values
// for the service layer to default.
func queryPage(r *http.Request) (page, pageSize int) {
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		pageSize = v
	}
	return page, pageSize
}
