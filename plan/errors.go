package plan

import "fmt"

// ErrorType classifies plan engine failures.
type ErrorType string

const (
	ValidationError  ErrorType = "validation"
	NotFoundError    ErrorType = "not_found"
	CapacityError    ErrorType = "capacity_exceeded"
	DeadlineError    ErrorType = "deadline_passed"
	PersistenceError ErrorType = "persistence"
)

// Error is returned by every engine operation that refuses a request.
type Error struct {
	Type    ErrorType
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same type, so errors.Is(err, ErrPlanFull)
// works for every capacity failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Type == e.Type
}

var (
	// ErrValidation is matched by input that would leave a plan invalid.
	ErrValidation = &Error{Type: ValidationError, Message: "invalid input"}
	// ErrNotFound is matched when a plan or series id does not exist.
	ErrNotFound = &Error{Type: NotFoundError, Message: "not found"}
	// ErrPlanFull is matched when a new "going" response exceeds capacity.
	ErrPlanFull = &Error{Type: CapacityError, Message: "plan is full"}
	// ErrDeadlinePassed is matched when responses are closed.
	ErrDeadlinePassed = &Error{Type: DeadlineError, Message: "rsvp deadline has passed"}
	// ErrPersistence is matched by storage adapter failures.
	ErrPersistence = &Error{Type: PersistenceError, Message: "persistence failed"}
)

// Invalid builds a validation error for field.
func Invalid(field, msg string) *Error {
	return &Error{Type: ValidationError, Field: field, Message: msg}
}

// NotFound builds a not-found error for the kind and id.
func NotFound(kind, id string) *Error {
	return &Error{Type: NotFoundError, Message: fmt.Sprintf("%s %q not found", kind, id)}
}

// Full builds the capacity error for a plan.
func Full(p *Plan) *Error {
	return &Error{
		Type:    CapacityError,
		Message: fmt.Sprintf("plan %q is full (%d/%d)", p.ID, p.FilledSpots, p.TotalSpots),
	}
}
