package services

import "errors"

// Service errors, distinguishable with errors.Is
var (
	// ErrDraftAccessDenied is returned when a user touches a draft they do not own
	ErrDraftAccessDenied = errors.New("draft does not belong to this user")
	// ErrUnknownGradingCategory is returned when an assessment references a
	// grading category the draft does not have
	ErrUnknownGradingCategory = errors.New("grading category not found")
	// ErrQuarterNotAssociated is returned when an assessment targets a
	// quarter the draft never declared
	ErrQuarterNotAssociated = errors.New("quarter is not associated with this course")
	// ErrSubmitInFlight is returned when a draft is submitted while a
	// previous submission is still running
	ErrSubmitInFlight = errors.New("a submission for this draft is already in flight")
)

// ValidationError carries the field path -> message map of a failed local
// validation. It never reaches the network; handlers render it as a 422.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// AsValidationError extracts a *ValidationError from an error chain
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
