package s3

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrInvalidLocation is returned for malformed or ambiguous addressing input.
	ErrInvalidLocation = errors.New("larry: invalid object location")

	// ErrNotFound is returned when the requested object or bucket does not exist.
	ErrNotFound = errors.New("larry: object not found")

	// ErrAccessDenied is returned when the backing store denies the operation.
	ErrAccessDenied = errors.New("larry: access denied")
)

// BackendError carries a backing-store failure that is neither a missing
// object nor a permission denial. Code and Message preserve the service
// error detail so callers can branch on the failure kind.
type BackendError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("larry: %s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("larry: %s: %s", e.Op, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Err }

// mapAPIError reduces an SDK error to the package taxonomy. Errors are
// surfaced unchanged in meaning; nothing is retried or suppressed here.
func mapAPIError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound", "404":
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case "AccessDenied", "Forbidden", "403":
			return fmt.Errorf("%s: %w", op, ErrAccessDenied)
		default:
			return &BackendError{Op: op, Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), Err: err}
		}
	}

	return &BackendError{Op: op, Message: err.Error(), Err: err}
}
