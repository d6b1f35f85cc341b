package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eldtechnologies/intake/internal/forms"
	"github.com/eldtechnologies/intake/internal/metrics"
)

// ValidationErrorResponse lists every violation in a rejected submission.
type ValidationErrorResponse struct {
	Error      string             `json:"error"`
	Violations []forms.FieldError `json:"violations"`
}

// CreateSubmissionAPI accepts a JSON submission. It applies the same
// validation as the HTML form and returns the stored record on success.
func (h *Handler) CreateSubmissionAPI(w http.ResponseWriter, r *http.Request) {
	var input forms.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	input.Normalize()

	if violations := forms.Validate(input); len(violations) > 0 {
		for _, v := range violations {
			metrics.ValidationFailures.WithLabelValues(v.Field).Inc()
		}
		h.JSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:      "validation failed",
			Violations: violations,
		})
		return
	}

	sub, err := h.store.CreateSubmission(r.Context(), input.Name, input.Email, input.Message)
	if err != nil {
		h.storeError(w, err, "create submission")
		return
	}

	metrics.SubmissionsCreated.WithLabelValues("api").Inc()
	h.logger.Info().
		Int64("id", sub.ID).
		Str("source", "api").
		Msg("submission stored")

	h.JSON(w, http.StatusCreated, sub)
}
