// Package intake provides a client for the intake submission service.
package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client is an intake API client. Username and Password are only needed
// for the admin endpoints (ListSubmissions, Stats).
type Client struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
}

// NewClient creates a new intake client. Admin credentials default to the
// INTAKE_ADMIN_USER and INTAKE_ADMIN_PASSWORD environment variables.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &Client{
		BaseURL:    baseURL,
		Username:   os.Getenv("INTAKE_ADMIN_USER"),
		Password:   os.Getenv("INTAKE_ADMIN_PASSWORD"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FieldError describes a single rejected submission field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// APIError is a non-2xx response from the service. Violations is populated
// for rejected submissions.
type APIError struct {
	Status     int
	Message    string
	Violations []FieldError
}

func (e *APIError) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("intake error %d: %s (%d violations)", e.Status, e.Message, len(e.Violations))
	}
	return fmt.Sprintf("intake error %d: %s", e.Status, e.Message)
}

// doRequest performs an HTTP request. Admin requests carry basic auth.
func (c *Client) doRequest(method, path string, body []byte, admin bool) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp struct {
			Error      string       `json:"error"`
			Violations []FieldError `json:"violations"`
		}
		json.Unmarshal(respBody, &errResp)
		apiErr.Message = errResp.Error
		apiErr.Violations = errResp.Violations
		return nil, apiErr
	}

	return respBody, nil
}

// Submission is one stored record.
type Submission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSubmissionRequest is the request body for creating a submission.
type CreateSubmissionRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

// CreateSubmission submits a new record. Validation failures come back as
// an *APIError carrying one violation per rejected field.
func (c *Client) CreateSubmission(name, email, message string) (*Submission, error) {
	req := CreateSubmissionRequest{Name: name, Email: email, Message: message}
	reqBody, _ := json.Marshal(req)

	respBody, err := c.doRequest("POST", "/api/submissions", reqBody, false)
	if err != nil {
		return nil, err
	}

	var sub Submission
	if err := json.Unmarshal(respBody, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// SubmissionList is the response from listing submissions.
type SubmissionList struct {
	Submissions []Submission `json:"submissions"`
	Total       int64        `json:"total"`
	Limit       int          `json:"limit"`
	Offset      int          `json:"offset"`
}

// ListSubmissions retrieves stored submissions, newest first. Requires
// admin credentials.
func (c *Client) ListSubmissions(limit, offset int) (*SubmissionList, error) {
	path := fmt.Sprintf("/api/submissions?limit=%d&offset=%d", limit, offset)

	respBody, err := c.doRequest("GET", path, nil, true)
	if err != nil {
		return nil, err
	}

	var resp SubmissionList
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StatsResponse summarizes stored submissions.
type StatsResponse struct {
	TotalSubmissions int64  `json:"total_submissions"`
	StoreState       string `json:"store_state"`
	LastSubmission   string `json:"last_submission"`
}

// Stats retrieves submission statistics. Requires admin credentials.
func (c *Client) Stats() (*StatsResponse, error) {
	respBody, err := c.doRequest("GET", "/api/stats", nil, true)
	if err != nil {
		return nil, err
	}

	var resp StatsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Check is the status of one health check.
type Check struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Region    string           `json:"region,omitempty"`
	Instance  string           `json:"instance,omitempty"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

// Health checks service health. A degraded service answers 503 with a
// full body, so that status is decoded rather than treated as an error.
func (c *Client) Health() (*HealthResponse, error) {
	req, err := http.NewRequest("GET", c.BaseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, &APIError{Status: resp.StatusCode, Message: "unexpected health response"}
	}

	var health HealthResponse
	if err := json.Unmarshal(respBody, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
