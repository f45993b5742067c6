package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/aetherdb/aetherdb/core"
)

// Role is a user's global role. Roles gate engine-wide operations;
// per-table access is decided by table ACLs.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleReadonly Role = "readonly"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleReadonly:
		return true
	}
	return false
}

// Authenticator verifies credentials and reports global roles. The
// engine depends on this interface only; Manager is the bundled
// implementation.
type Authenticator interface {
	Authenticate(username, password string) (core.Identity, error)
	RoleOf(username string) (Role, error)
}

type user struct {
	// hash is empty when the account has an empty password, which is
	// how the bootstrap admin starts out.
	hash []byte
	role Role
}

// Manager is an in-memory user registry with bcrypt password hashing.
// Not safe for concurrent use; callers serialize access.
type Manager struct {
	users map[string]*user
}

func NewManager() *Manager {
	return &Manager{users: make(map[string]*user)}
}

// Empty reports whether no users are registered.
func (m *Manager) Empty() bool {
	return len(m.users) == 0
}

// AddUser registers a user with the given password and role.
func (m *Manager) AddUser(username, password string, role Role) error {
	if !role.Valid() {
		return &UnknownRoleError{Role: string(role)}
	}
	if _, ok := m.users[username]; ok {
		return &UserExistsError{Username: username}
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	m.users[username] = &user{hash: hash, role: role}
	return nil
}

// Authenticate checks the password and returns the identity on success.
func (m *Manager) Authenticate(username, password string) (core.Identity, error) {
	u, ok := m.users[username]
	if !ok {
		return core.Identity{}, &InvalidCredentialsError{Username: username}
	}
	if len(u.hash) == 0 {
		if password != "" {
			return core.Identity{}, &InvalidCredentialsError{Username: username}
		}
		return core.Identity{Username: username}, nil
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return core.Identity{}, &InvalidCredentialsError{Username: username}
	}
	return core.Identity{Username: username}, nil
}

// RoleOf returns the user's global role.
func (m *Manager) RoleOf(username string) (Role, error) {
	u, ok := m.users[username]
	if !ok {
		return "", &UnknownUserError{Username: username}
	}
	return u.role, nil
}

// SetRole changes the target user's role. Only admins may change roles.
func (m *Manager) SetRole(acting, target string, role Role) error {
	actor, ok := m.users[acting]
	if !ok {
		return &UnknownUserError{Username: acting}
	}
	if actor.role != RoleAdmin {
		return &NotAdminError{Username: acting}
	}
	if !role.Valid() {
		return &UnknownRoleError{Role: string(role)}
	}
	u, ok := m.users[target]
	if !ok {
		return &UnknownUserError{Username: target}
	}
	u.role = role
	return nil
}

// SetPassword replaces the user's password.
func (m *Manager) SetPassword(username, password string) error {
	u, ok := m.users[username]
	if !ok {
		return &UnknownUserError{Username: username}
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.hash = hash
	return nil
}

// Users returns the registered usernames with their roles.
func (m *Manager) Users() map[string]Role {
	out := make(map[string]Role, len(m.users))
	for name, u := range m.users {
		out[name] = u.role
	}
	return out
}

func hashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}
