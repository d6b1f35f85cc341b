package handlers

import (
	"errors"
	"net/http"

	"github.com/eldtechnologies/intake/internal/api/middleware"
	"github.com/eldtechnologies/intake/internal/forms"
	"github.com/eldtechnologies/intake/internal/metrics"
	"github.com/eldtechnologies/intake/internal/store"
	"github.com/eldtechnologies/intake/internal/web"
)

// ShowForm renders the contact form.
func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	token := middleware.EnsureCSRFCookie(w, r, h.secureCookies)
	h.render(w, http.StatusOK, "form", web.FormPage{CSRFToken: token})
}

// SubmitForm validates a form post and stores the submission. Invalid
// input re-renders the form with every violation listed and the typed
// values preserved.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Bad Request", "The form data could not be read.")
		return
	}

	input := forms.FromValues(r.PostForm)

	if violations := forms.Validate(input); len(violations) > 0 {
		for _, v := range violations {
			metrics.ValidationFailures.WithLabelValues(v.Field).Inc()
		}
		token := middleware.EnsureCSRFCookie(w, r, h.secureCookies)
		h.render(w, http.StatusBadRequest, "form", web.FormPage{
			CSRFToken: token,
			Values:    input,
			Errors:    violations,
		})
		return
	}

	sub, err := h.store.CreateSubmission(r.Context(), input.Name, input.Email, input.Message)
	if err != nil {
		h.logger.Error().Err(err).Msg("form submission failed")
		if errors.Is(err, store.ErrUnavailable) {
			h.renderError(w, http.StatusServiceUnavailable, "Service Unavailable",
				"We cannot accept submissions right now. Please try again in a moment.")
			return
		}
		h.renderError(w, http.StatusInternalServerError, "Internal Server Error",
			"Something went wrong saving your message. Please try again.")
		return
	}

	metrics.SubmissionsCreated.WithLabelValues("form").Inc()
	h.logger.Info().
		Int64("id", sub.ID).
		Time("created_at", sub.CreatedAt).
		Msg("submission stored")

	h.render(w, http.StatusOK, "success", web.SuccessPage{Name: sub.Name})
}
