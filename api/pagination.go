package api

import (
	"net/http"
	"strconv"
)

// Listing endpoints cap their page size; full snapshots go through the
// export route instead.
const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

// PaginationMeta is embedded in paginated list responses.
type PaginationMeta struct {
	TotalCount int  `json:"total_count"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"has_more"`
}

// listPage is the page window requested through the "limit" and "offset"
// query parameters. Missing or unparsable values fall back to the defaults;
// limit is capped at maxPageLimit.
type listPage struct {
	limit  int
	offset int
}

func pageFromQuery(r *http.Request) listPage {
	q := r.URL.Query()
	p := listPage{limit: defaultPageLimit}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.limit = n
	}
	if p.limit > maxPageLimit {
		p.limit = maxPageLimit
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		p.offset = n
	}
	return p
}

// window clamps the page against a listing of total records, returning the
// slice bounds and the filled response metadata. An offset past the end
// yields an empty window.
func (p listPage) window(total int) (start, end int, meta PaginationMeta) {
	start = min(p.offset, total)
	end = min(start+p.limit, total)
	meta = PaginationMeta{
		TotalCount: total,
		Limit:      p.limit,
		Offset:     p.offset,
		HasMore:    end < total,
	}
	return start, end, meta
}
