package db

import "fmt"

// AuthRequiredError reports an operation attempted without a login.
type AuthRequiredError struct{}

func (e *AuthRequiredError) Error() string {
	return "not logged in"
}

// ForbiddenError reports an operation the current user may not perform.
type ForbiddenError struct {
	User   string
	Action string
	Table  string
}

func (e *ForbiddenError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("user %s may not %s", e.User, e.Action)
	}
	return fmt.Sprintf("user %s may not %s on table %s", e.User, e.Action, e.Table)
}

// NotFoundError reports a statement against a table that does not
// exist.
type NotFoundError struct {
	Table string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("table %s does not exist", e.Table)
}

// AlreadyExistsError reports a create or rename that collides with an
// existing table.
type AlreadyExistsError struct {
	Table string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("table %s already exists", e.Table)
}

// UnsupportedOperationError reports a statement kind the dispatcher has
// no handler for. The grammar is closed, so this is defensive.
type UnsupportedOperationError struct {
	Kind string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported statement: %s", e.Kind)
}

// UnknownPermissionError reports a grant or revoke of a permission
// outside read, write and admin.
type UnknownPermissionError struct {
	Permission string
}

func (e *UnknownPermissionError) Error() string {
	return fmt.Sprintf("unknown permission %s", e.Permission)
}
