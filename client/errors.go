package client

import "errors"

// ErrorKind classifies fetch failures so the view layer can render them
// without string matching.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorNotFound
	ErrorRateLimited
	ErrorForbidden
	ErrorServer
	ErrorTimeout
	ErrorEmptyData
)

// String returns a short label for logging.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNotFound:
		return "not_found"
	case ErrorRateLimited:
		return "rate_limited"
	case ErrorForbidden:
		return "forbidden"
	case ErrorServer:
		return "server_error"
	case ErrorTimeout:
		return "timeout"
	case ErrorEmptyData:
		return "empty_data"
	default:
		return "unknown"
	}
}

// FetchError is a typed failure returned by the Fetcher.
type FetchError struct {
	Kind    ErrorKind
	Status  int // HTTP status code, 0 for transport-level failures
	Message string
}

func (e *FetchError) Error() string {
	return e.Message
}

// fetchError builds a FetchError with a preformatted message.
func fetchError(kind ErrorKind, status int, message string) *FetchError {
	return &FetchError{Kind: kind, Status: status, Message: message}
}

// KindOf extracts the ErrorKind from an error chain. Non-fetch errors
// report ErrorUnknown.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ErrorUnknown
}

// ErrSuperseded is the cancellation cause the coordinator attaches when a
// newer navigation aborts an in-flight fetch. Fetches cancelled with this
// cause propagate it instead of falling back to demo data.
var ErrSuperseded = errors.New("superseded by newer navigation")

// errFetchTimeout is the cancellation cause attached to the fetcher's own
// deadline, so a timeout is distinguishable from caller cancellation.
var errFetchTimeout = errors.New("transaction fetch timed out")
