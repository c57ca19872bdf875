package provider

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrMissingAPIKey = errors.New("api key not configured")
	ErrUpstream      = errors.New("upstream request failed")
)

const maxErrorBody = 4 << 10

// upstreamError reads a bounded slice of a failed response body into the error.
func upstreamError(name string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("%w: %s api error: %s", ErrUpstream, name, msg)
}
