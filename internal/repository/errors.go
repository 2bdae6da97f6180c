package repository

import (
	"errors"
	"fmt"
)

// Store lookup misses.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrContentNotFound = errors.New("archived content not found")
	ErrQueueEmpty      = errors.New("task queue is empty")
)

// Fetch failures, classified so the pipeline can count them toward the
// retry budget.
var (
	ErrFetchTimeout    = errors.New("page fetch timed out")
	ErrFetchNetwork    = errors.New("page fetch network error")
	ErrFetchHTTPStatus = errors.New("page fetch returned error status")
)

// ErrAnalysisFailed wraps failures of the external page-analysis
// capability. It ends the regeneration path but never fails a task by
// itself.
var ErrAnalysisFailed = errors.New("page analysis failed")

// HTTPStatusError is a fetch failure carrying the HTTP status code.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("page fetch returned error status %d", e.Code)
}

func (e *HTTPStatusError) Unwrap() error {
	return ErrFetchHTTPStatus
}
