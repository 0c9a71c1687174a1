package services

import (
	"errors"
	"strings"
)

// Domain errors raised by the command layer. Controllers map these onto
// HTTP status codes.
var (
	// ErrNotFound means the requested dataset (or a referenced record) does not exist.
	ErrNotFound = errors.New("datamanage not found")
	// ErrForbidden means the acting user neither owns the dataset nor is an admin.
	ErrForbidden = errors.New("changing this datamanage is forbidden")
	// ErrUnauthorized means no authenticated user is attached to the request.
	ErrUnauthorized = errors.New("not authenticated")

	// ErrCreateFailed, ErrUpdateFailed, ErrDeleteFailed and ErrImportFailed
	// wrap storage-level failures after the transaction has been rolled back.
	ErrCreateFailed = errors.New("datamanage could not be created")
	ErrUpdateFailed = errors.New("datamanage could not be updated")
	ErrDeleteFailed = errors.New("datamanage could not be deleted")
	ErrImportFailed = errors.New("datamanage could not be imported")
)

// ValidationError collects every validation failure found while checking a
// payload, so callers see all problems in one response instead of fixing
// them one at a time.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "invalid datamanage: " + strings.Join(e.Issues, "; ")
}

// Add appends an issue to the list.
func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

// HasIssues reports whether any validation failure was recorded.
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
