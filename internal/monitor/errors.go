package monitor

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholders shown in place of a value that could not be read.
const (
	Unknown        = "Unknown"
	ErrorText      = "Error"
	NotAvailable   = "Not available"
	Unretrievable  = "Unable to retrieve"
	ErrorChecking  = "Error checking"
	NotApplicable  = "N/A"
	NoConnection   = "No Connection"
	NoDataText     = "No data"
	NotSupported   = "Not supported"
	NotAvailableUC = "Not Available"
)

// ErrNoBattery is returned when no power supply of type Battery exists.
var ErrNoBattery = errors.New("no battery present")

// ErrorSource identifies which reader produced an error.
type ErrorSource string

const (
	ErrorSourceCPU      ErrorSource = "cpu"
	ErrorSourceCPUFreq  ErrorSource = "cpufreq"
	ErrorSourceThermal  ErrorSource = "thermal"
	ErrorSourceMemory   ErrorSource = "memory"
	ErrorSourceStorage  ErrorSource = "storage"
	ErrorSourceBattery  ErrorSource = "battery"
	ErrorSourceNetwork  ErrorSource = "network"
	ErrorSourceUptime   ErrorSource = "uptime"
	ErrorSourceSystem   ErrorSource = "system"
	ErrorSourceHardware ErrorSource = "hardware"
	ErrorSourceCamera   ErrorSource = "camera"
)

// ComponentError wraps an error with the reader it came from.
type ComponentError struct {
	Source ErrorSource
	Err    error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// NewComponentError creates a ComponentError.
func NewComponentError(source ErrorSource, err error) *ComponentError {
	return &ComponentError{Source: source, Err: err}
}

// UpdateError aggregates the component errors of one dashboard update.
// The snapshot that accompanies it is still usable: failed fields hold
// zero values.
type UpdateError struct {
	Errors []*ComponentError
}

func (e *UpdateError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("update error: %v", e.Errors[0])
	}
	msgs := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		msgs[i] = ce.Error()
	}
	return fmt.Sprintf("update errors (%d): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes every component error to errors.Is and errors.As.
func (e *UpdateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		errs[i] = ce
	}
	return errs
}

// HasSource reports whether any error came from source.
func (e *UpdateError) HasSource(source ErrorSource) bool {
	return len(e.BySource(source)) > 0
}

// BySource returns the errors from source.
func (e *UpdateError) BySource(source ErrorSource) []*ComponentError {
	var result []*ComponentError
	for _, ce := range e.Errors {
		if ce.Source == source {
			result = append(result, ce)
		}
	}
	return result
}

// AsUpdateError extracts an UpdateError from err, or returns nil.
func AsUpdateError(err error) *UpdateError {
	var ue *UpdateError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}

// IsComponentError reports whether err carries a ComponentError from source.
func IsComponentError(err error, source ErrorSource) bool {
	var ce *ComponentError
	for errors.As(err, &ce) {
		if ce.Source == source {
			return true
		}
		err = ce.Err
	}
	return false
}

// orPlaceholder returns value, or placeholder when err is non-nil or value
// is empty.
func orPlaceholder(value string, err error, placeholder string) string {
	if err != nil || strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
