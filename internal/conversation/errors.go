package conversation

import "errors"

var (
	// ErrInvalidInput indicates a malformed request from the client.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStaleAffordance is returned when an action is clicked on a turn whose
	// affordances are no longer active.
	ErrStaleAffordance = errors.New("affordance is no longer active")

	// ErrNoDraft indicates a field operation without an open field form.
	ErrNoDraft = errors.New("no draft in progress")

	// ErrNoDesignStep indicates a design operation outside the design step.
	ErrNoDesignStep = errors.New("design step not active")

	// ErrQuotaExhausted is returned by collaborators when the user has no
	// remaining message quota.
	ErrQuotaExhausted = errors.New("message quota exhausted")
)
