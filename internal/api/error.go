package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericErrorMessage is shown when the backend did not provide a
// usable error detail (transport failure, empty body, non-JSON body).
const GenericErrorMessage = "something went wrong, please try again"

// Error is a failed API call. StatusCode is zero for transport
// failures; Detail carries the server-provided message verbatim when
// one was present in the response body.
type Error struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Detail, e.StatusCode)
	default:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an API error with status 401.
// Stores use it to detect session expiry reactively.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// UserMessage converts an error from a client call into the string
// surfaced in the UI: the server detail when available, otherwise the
// generic fallback. A nil error returns "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return GenericErrorMessage
}

// errorBody matches the two error envelope shapes the backend emits.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// extractDetail pulls a human-readable message out of an error response
// body, returning "" when none is present.
func extractDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	for _, s := range []string{eb.Detail, eb.Message, eb.Error} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
