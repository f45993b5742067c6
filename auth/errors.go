package auth

import "fmt"

// InvalidCredentialsError reports a failed login. It does not reveal
// whether the username exists.
type InvalidCredentialsError struct {
	Username string
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials for %s", e.Username)
}

// UnknownUserError reports an operation on a user that is not
// registered.
type UnknownUserError struct {
	Username string
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("unknown user %s", e.Username)
}

// UserExistsError reports an attempt to register a taken username.
type UserExistsError struct {
	Username string
}

func (e *UserExistsError) Error() string {
	return fmt.Sprintf("user %s already exists", e.Username)
}

// UnknownRoleError reports a role outside admin, user and readonly.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %s", e.Role)
}

// NotAdminError reports a role change attempted by a non-admin.
type NotAdminError struct {
	Username string
}

func (e *NotAdminError) Error() string {
	return fmt.Sprintf("user %s is not an admin", e.Username)
}
