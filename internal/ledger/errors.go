package ledger

import "fmt"

// InvalidDateError rejects selection of a date that has not occurred yet.
// No state changes when it is returned.
type InvalidDateError struct {
	Date string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("cannot select future date %s", e.Date)
}

// AuthRequiredError means the stored credential was missing or rejected. The
// credential has already been cleared when this surfaces; the caller must
// route to re-authentication.
type AuthRequiredError struct {
	Err error
}

func (e *AuthRequiredError) Error() string {
	if e.Err == nil {
		return "authentication required"
	}
	return fmt.Sprintf("authentication required: %v", e.Err)
}

func (e *AuthRequiredError) Unwrap() error {
	return e.Err
}

// LoadFailedError is any other non-success load outcome. The ledger has
// installed an empty fallback for the date, so the UI can render alongside
// the error banner.
type LoadFailedError struct {
	Date   string
	Status int
	Detail string
	Err    error
}

func (e *LoadFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("load day %s failed: %s", e.Date, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("load day %s failed: %v", e.Date, e.Err)
	}
	return fmt.Sprintf("load day %s failed", e.Date)
}

func (e *LoadFailedError) Unwrap() error {
	return e.Err
}
