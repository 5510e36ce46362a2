package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"Readout/internal/core/paging"
)

// MaxPageLimit caps the limit query parameter.
const MaxPageLimit = 100

// PageParams are the paging query parameters shared by list endpoints.
type PageParams struct {
	Cursor  paging.Cursor
	Limit   int // 0 selects the configured page size
	Refresh bool
}

// ParsePageParams reads after, limit and refresh from the query string.
func ParsePageParams(r *http.Request) (PageParams, error) {
	q := r.URL.Query()

	cursor, err := paging.DecodeCursor(q.Get("after"))
	if err != nil {
		return PageParams{}, err
	}
	params := PageParams{Cursor: cursor}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 {
			return PageParams{}, fmt.Errorf("limit must be a positive integer")
		}
		params.Limit = min(limit, MaxPageLimit)
	}

	if s := q.Get("refresh"); s != "" {
		refresh, err := strconv.ParseBool(s)
		if err != nil {
			return PageParams{}, fmt.Errorf("refresh must be a boolean")
		}
		params.Refresh = refresh
	}
	return params, nil
}

// WriteParamError writes a 400 response for a ParsePageParams error.
func WriteParamError(w http.ResponseWriter, err error) {
	if errors.Is(err, paging.ErrInvalidCursor) {
		WriteError(w, http.StatusBadRequest, "InvalidCursor", "The provided cursor is invalid")
		return
	}
	WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
}

// PageResponse is the JSON shape of one page.
type PageResponse[T paging.Keyed] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"cursor,omitempty"`
	// Warning carries the remote error when cached rows were served instead.
	Warning    string `json:"warning,omitempty"`
	EndReached bool   `json:"endReached"`
}

// WritePage writes page. A load error is reported as a warning when the store
// still had rows to serve, and as an error response otherwise.
func WritePage[T paging.Keyed](w http.ResponseWriter, page paging.Page[T], err error) {
	if err != nil && len(page.Items) == 0 {
		WriteServiceError(w, err)
		return
	}

	resp := PageResponse[T]{
		Items:      page.Items,
		Cursor:     page.NextCursor,
		EndReached: page.EndReached,
	}
	if resp.Items == nil {
		resp.Items = []T{}
	}
	if err != nil {
		resp.Warning = err.Error()
	}
	WriteJSON(w, resp)
}
