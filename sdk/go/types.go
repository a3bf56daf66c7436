package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError is the error envelope returned by the server on failures.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed: status %d", e.Status)
}

type okResponse struct {
	OK bool `json:"ok"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		// best effort decode of the error envelope
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
