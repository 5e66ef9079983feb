package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for fetch failures that carry no HTTP status. The crawl
// engine treats all of these as fatal to the seed that hit them.
var (
	ErrNotHTML           = errors.New("non-HTML content type")
	ErrRequestCreation   = errors.New("failed to create HTTP request")
	ErrResponseBodyRead  = errors.New("failed to read response body")
	ErrParsing           = errors.New("parsing error")
	ErrRobotsUnavailable = errors.New("robots.txt could not be retrieved")
)

// StatusError reports a non-2xx HTTP response for a page fetch. It is the
// only fetch failure class the crawl engine treats as recoverable.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}
