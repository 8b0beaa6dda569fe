package leads

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidStatus is returned when a status is outside new|contacted|qualified|closed
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrStoreWrite is wrapped around any failure of the primary lead write
	ErrStoreWrite = errors.New("lead store write failed")

	// ErrMissingCustomService is returned when "Other" is chosen without a custom service
	ErrMissingCustomService = errors.New("custom service required for Other")

	// ErrSubscriptionsUnsupported is returned by stores that cannot push changes
	ErrSubscriptionsUnsupported = errors.New("lead change subscriptions unsupported")
)

// ValidationError lists the form fields that blocked a submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("leads: invalid form: %s", strings.Join(e.Fields, ", "))
}

// Unwrap exposes ErrMissingCustomService when the custom service was the gap.
func (e *ValidationError) Unwrap() error {
	for _, f := range e.Fields {
		if f == "customService" {
			return ErrMissingCustomService
		}
	}
	return nil
}
