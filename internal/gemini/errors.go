package gemini

import (
	"fmt"
	"strings"
	"time"

	"arheritage/internal/apperr"
)

// GatewayError is returned by every Client operation.
type GatewayError struct {
	Op          string
	UserMessage string
	Err         error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gemini %s: %s", e.Op, e.UserMessage)
	}
	return fmt.Sprintf("gemini %s: %v", e.Op, e.Err)
}

// Unwrap exposes the gateway marker and the underlying cause.
func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperr.ErrGateway}
	}
	return []error{apperr.ErrGateway, e.Err}
}

// UserFacingMessage returns the inline message for the failed operation.
func (e *GatewayError) UserFacingMessage() string {
	return e.UserMessage
}

// ParseError reports a response that violates the expected shape.
type ParseError struct {
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected response shape: %s (payload snippet: %s)", e.Reason, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	return apperr.ErrParse
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type emptyContentError struct {
	Op           string
	FinishReason string
	BlockReason  string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, block_reason=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.BlockReason,
		e.Snippet,
	)
}
