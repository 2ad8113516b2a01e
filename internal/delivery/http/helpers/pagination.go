package helpers

import (
	"net/http"
	"strconv"
	"strings"

	"eventhub/internal/domain"
)

// ParsePagination reads page and page_size from the query string.
// Unparsable values are treated as absent; range clamping happens in the service.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	return domain.PaginationParams{
		Page:     atoiOrZero(q.Get("page")),
		PageSize: atoiOrZero(q.Get("page_size")),
	}
}

// ParseTags reads the tag filter from ?tags=a,b and repeated ?tags= parameters.
func ParseTags(r *http.Request) []string {
	var tags []string
	for _, v := range r.URL.Query()["tags"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
