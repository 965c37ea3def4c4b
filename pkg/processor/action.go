package processor

import (
	"errors"
	"fmt"
)

// ProcessingAction is a traversal control signal returned by a hook.
type ProcessingAction int

const (
	// NoAction continues the traversal normally.
	NoAction ProcessingAction = iota
	// DeleteValueSoft clears the value and keeps its meta. Array items are
	// removed from their array; object and struct entries keep their key.
	DeleteValueSoft
	// DeleteValueHard clears the value and its meta. Array items and object
	// entries are removed entirely.
	DeleteValueHard
	// InvalidTransaction aborts the whole traversal.
	InvalidTransaction
)

// String returns the action name.
func (a ProcessingAction) String() string {
	switch a {
	case NoAction:
		return "no_action"
	case DeleteValueSoft:
		return "delete_value_soft"
	case DeleteValueHard:
		return "delete_value_hard"
	case InvalidTransaction:
		return "invalid_transaction"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ErrInvalidTransaction matches any InvalidTransaction abort with errors.Is.
var ErrInvalidTransaction = errors.New("invalid transaction")

// ActionError carries a ProcessingAction out of a hook.
type ActionError struct {
	Action ProcessingAction
	Reason string
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.Reason == "" {
		return e.Action.String()
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Reason)
}

// Is makes InvalidTransaction aborts match ErrInvalidTransaction.
func (e *ActionError) Is(target error) bool {
	return target == ErrInvalidTransaction && e.Action == InvalidTransaction
}

var (
	errDeleteSoft = &ActionError{Action: DeleteValueSoft}
	errDeleteHard = &ActionError{Action: DeleteValueHard}
)

// DeleteSoft is returned by hooks to clear the value but keep its meta.
func DeleteSoft() error { return errDeleteSoft }

// DeleteHard is returned by hooks to clear the value and its meta.
func DeleteHard() error { return errDeleteHard }

// AbortTransaction is returned by hooks to abort the traversal.
func AbortTransaction(format string, args ...any) error {
	return &ActionError{Action: InvalidTransaction, Reason: fmt.Sprintf(format, args...)}
}

// ActionOf reports the action carried by err. Errors that are not actions
// report NoAction.
func ActionOf(err error) ProcessingAction {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Action
	}
	return NoAction
}
