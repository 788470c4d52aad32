package workflow

import "fmt"

// ErrNotFound is returned when a job, user or application does not exist.
var ErrNotFound = fmt.Errorf("not found")

// ErrDuplicateApplication is returned when a candidate applies twice for the
// same job. It is surfaced both by the service pre-check and by the store's
// unique-constraint mapping; the constraint is the authoritative guard.
var ErrDuplicateApplication = fmt.Errorf("application already exists for this job")

// ErrStageConflict is returned when a stage transition loses the race against
// a concurrent transition on the same application. The caller may re-read and
// retry against the fresh stage.
var ErrStageConflict = fmt.Errorf("application stage changed concurrently")

// ErrForbidden is returned when the acting user lacks the role required for
// an operation. Role enforcement happens at the transport boundary.
var ErrForbidden = fmt.Errorf("operation not permitted for this role")

// ValidationError wraps a user-facing validation message, such as an illegal
// stage transition.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
