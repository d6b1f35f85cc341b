package handlers

import (
	"net/http"
	"time"
)

// StatsResponse summarizes stored submissions for the admin dashboard.
type StatsResponse struct {
	TotalSubmissions int64  `json:"total_submissions"`
	StoreState       string `json:"store_state"`
	LastSubmission   string `json:"last_submission"`
}

// Stats returns submission statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.store.CountSubmissions(ctx)
	if err != nil {
		h.storeError(w, err, "count submissions")
		return
	}

	lastSubmission := "none yet"
	if total > 0 {
		latest, err := h.store.ListSubmissions(ctx, 1, 0)
		if err != nil {
			h.storeError(w, err, "list submissions")
			return
		}
		if len(latest) > 0 {
			lastSubmission = formatTimeAgo(latest[0].CreatedAt)
		}
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalSubmissions: total,
		StoreState:       h.store.State().String(),
		LastSubmission:   lastSubmission,
	})
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return formatInt(mins) + " minutes ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return formatInt(hours) + " hours ago"
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return formatInt(days) + " days ago"
	}
}

// formatInt converts an int to string without importing strconv.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
