package removal

import "fmt"

// APIError is the base failure for any non-2xx response.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return "api error: " + e.Message
}

// InsufficientCreditsError means the account balance cannot cover the
// job. Not retryable.
type InsufficientCreditsError struct {
	APIError
}

// JobNotFoundError means the referenced job or resource does not exist.
type JobNotFoundError struct {
	APIError
}

// ProcessingError means the service accepted the job but failed to
// process it. The message is the service's own explanation.
type ProcessingError struct {
	APIError
	JobID string
}
