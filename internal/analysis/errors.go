package analysis

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a run was aborted.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindNotFound
	KindGatewayTimeout
	KindBadGateway
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindNotFound:
		return "not_found"
	case KindGatewayTimeout:
		return "gateway_timeout"
	case KindBadGateway:
		return "bad_gateway"
	default:
		return "unknown"
	}
}

// HTTPStatus is the status code a caller exposing runs over HTTP would use.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindGatewayTimeout:
		return http.StatusGatewayTimeout
	case KindBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StageError reports the stage that aborted a run.
type StageError struct {
	Stage string
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// KindOf returns the Kind of the StageError in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

var (
	// ErrNoVideos is returned when the locator finds nothing to scrape.
	ErrNoVideos = errors.New("no videos found for query or invalid video URL")
	// ErrNoRecords is returned when the scrape job yields an empty dataset.
	ErrNoRecords = errors.New("failed to scrape any video data")
	// ErrInvalidLimit is returned for a limit outside 1..MaxLimit.
	ErrInvalidLimit = fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	// ErrMissingQuery is returned when neither a query nor a URL is given.
	ErrMissingQuery = errors.New("query or url is required")
)
