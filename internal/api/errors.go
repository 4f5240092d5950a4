package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error is a server-reported failure: a non-success response with the
// server's message when one was provided.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a credential rejection.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// newError extracts the server's message from a non-success response. The
// service reports failures as {"detail": "..."}; anything else collapses to a
// generic message.
func newError(resp *http.Response) *Error {
	message := "request failed"

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(body) > 0 {
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
			message = detail.Detail
		}
	}

	return &Error{Status: resp.StatusCode, Message: message}
}
