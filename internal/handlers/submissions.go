package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/samber/lo"

	"github.com/eldtechnologies/intake/internal/models"
	"github.com/eldtechnologies/intake/internal/store"
	"github.com/eldtechnologies/intake/internal/web"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// pagination parses limit/offset query params with the listing defaults.
// Bad values fall back silently.
func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if s := r.URL.Query().Get("offset"); s != "" {
		if o, err := strconv.Atoi(s); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// Submissions renders the admin table, newest first.
func (h *Handler) Submissions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	subs, err := h.store.ListSubmissions(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("list submissions failed")
		if errors.Is(err, store.ErrUnavailable) {
			h.renderError(w, http.StatusServiceUnavailable, "Service Unavailable",
				"The submission store is unreachable right now.")
			return
		}
		h.renderError(w, http.StatusInternalServerError, "Internal Server Error",
			"Could not load submissions.")
		return
	}

	total, err := h.store.CountSubmissions(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("count submissions failed")
		h.renderError(w, http.StatusInternalServerError, "Internal Server Error",
			"Could not load submissions.")
		return
	}

	rows := lo.Map(subs, func(s models.Submission, _ int) web.SubmissionRow {
		return web.SubmissionRow{
			ID:        s.ID,
			Name:      s.Name,
			Email:     s.Email,
			Message:   s.Message,
			CreatedAt: s.CreatedAt,
		}
	})

	h.render(w, http.StatusOK, "submissions", web.SubmissionsPage{
		Submissions: rows,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
		PrevOffset:  max(offset-limit, 0),
		NextOffset:  offset + limit,
		HasPrev:     offset > 0,
		HasNext:     int64(offset+limit) < total,
	})
}

// SubmissionListResponse is the JSON shape of the admin list endpoint.
type SubmissionListResponse struct {
	Submissions []models.Submission `json:"submissions"`
	Total       int64               `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// ListSubmissionsAPI returns stored submissions as JSON, newest first.
func (h *Handler) ListSubmissionsAPI(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	subs, err := h.store.ListSubmissions(r.Context(), limit, offset)
	if err != nil {
		h.storeError(w, err, "list submissions")
		return
	}

	total, err := h.store.CountSubmissions(r.Context())
	if err != nil {
		h.storeError(w, err, "count submissions")
		return
	}

	if subs == nil {
		subs = []models.Submission{}
	}

	h.JSON(w, http.StatusOK, SubmissionListResponse{
		Submissions: subs,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
	})
}

// storeError maps store failures onto API status codes: unreachable store
// 503, anything else 500.
func (h *Handler) storeError(w http.ResponseWriter, err error, op string) {
	h.logger.Error().Err(err).Msg(op + " failed")
	if errors.Is(err, store.ErrUnavailable) {
		h.Error(w, http.StatusServiceUnavailable, "submission store unavailable")
		return
	}
	h.Error(w, http.StatusInternalServerError, "database error")
}
