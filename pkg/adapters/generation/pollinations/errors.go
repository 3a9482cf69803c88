package pollinations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go/option"

	"github.com/aescanero/genflow/pkg/domain"
)

// ErrNoAPIKey is returned by authenticated calls when no key has been set
var ErrNoAPIKey = errors.New("API key not configured")

// APIError is a non-success response from the service.
// It matches domain.ErrRemote with errors.Is.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap ties every API error to domain.ErrRemote
func (e *APIError) Unwrap() error {
	return domain.ErrRemote
}

// IsUnauthorized reports whether err is an API error with HTTP 401 status
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// newAPIError builds the error from the service's error body, falling back to the status code
func newAPIError(operation string, status int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("API error: %d", status)
	}
	return &APIError{Operation: operation, StatusCode: status, Message: message}
}

// transportError marks a failure to reach the service
func transportError(operation string, err error) error {
	return fmt.Errorf("%s: %w: %w", operation, domain.ErrRemote, err)
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// checkStatus turns a non-success response into an APIError and closes its body
func checkStatus(resp *http.Response) *APIError {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)
	return newAPIError("", resp.StatusCode, errResp.Error.Message)
}

// statusMiddleware reports error responses in the service's own error format
// before the SDK decodes them.
func statusMiddleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if err != nil {
		return nil, err
	}
	if apiErr := checkStatus(resp); apiErr != nil {
		return nil, apiErr
	}
	return resp, nil
}

// sdkError names the failed operation on API errors and marks everything else
// as a transport failure
func sdkError(operation string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		apiErr.Operation = operation
		return apiErr
	}
	return transportError(operation, err)
}
