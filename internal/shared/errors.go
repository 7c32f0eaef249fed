package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// API and registry errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrContactNotFound    = fmt.Errorf("contact not found")
	ErrMemberNotFound     = fmt.Errorf("member not found")
	// ErrComplianceState covers emails the mailing provider permanently
	// suppressed; retrying is pointless and resubscription needs a human.
	ErrComplianceState = fmt.Errorf("member in compliance state")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
	ErrMissingEmail    = fmt.Errorf("contact has no email address")
	ErrMissingName     = fmt.Errorf("member has no usable name")
)
