package schema

import "errors"

var (
	// ErrValidation marks input rejected before any gateway call.
	ErrValidation = errors.New("validation failed")
	// ErrAppNotFound indicates an application could not be found.
	ErrAppNotFound = errors.New("application not found")
	// ErrGatewayUnavailable indicates the gateway is failing fast.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrInvalidScenario indicates a scenario payload could not be decoded.
	ErrInvalidScenario = errors.New("invalid scenario payload")
)

// ValidationError describes rejected input with a short message and a
// longer description for the error surface.
type ValidationError struct {
	Field       string
	Message     string
	Description string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	return e.Message
}

// Is reports ErrValidation as the sentinel for all validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Notice converts the validation error into an error surface entry.
func (e *ValidationError) Notice(action Action) Notice {
	return Notice{
		Level:       NoticeError,
		Action:      action,
		Message:     e.Message,
		Description: e.Description,
	}
}

// ErrNameRequired rejects a blank application name.
func ErrNameRequired() *ValidationError {
	return &ValidationError{
		Field:       "name",
		Message:     "name is required.",
		Description: "name of a application represent to a scenario. It will show on sidebar.",
	}
}

// ErrScenarioRequired rejects a blank scenario body.
func ErrScenarioRequired() *ValidationError {
	return &ValidationError{
		Field:       "scenario",
		Message:     "scenario is required.",
		Description: "scenario of a application should be filled in.",
	}
}

// ErrIDRequired rejects a missing application id.
func ErrIDRequired() *ValidationError {
	return &ValidationError{
		Field:       "id",
		Message:     "missing parameter.",
		Description: "missing id params.",
	}
}
