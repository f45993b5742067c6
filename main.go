package aetherdb

import (
	"github.com/aetherdb/aetherdb/audit"
	"github.com/aetherdb/aetherdb/auth"
	"github.com/aetherdb/aetherdb/db"
	"github.com/aetherdb/aetherdb/store"
)

// BootstrapUser is the admin account created when an instance opens
// with no registered users. It starts with an empty password and the
// session is bound to it so the first real accounts can be created.
const BootstrapUser = "aether"

// Config carries the pieces an instance is wired from. Zero values are
// usable: events are discarded and snapshots disabled.
type Config struct {
	Recorder  audit.Recorder
	Snapshots store.Store
}

type Instance struct {
	Users  *auth.Manager
	Engine *db.Engine

	recorder audit.Recorder
}

// Open wires an instance together. On a fresh instance with no users,
// the bootstrap admin is created and logged in.
func Open(cfg Config) (*Instance, error) {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}

	users := auth.NewManager()
	engine := db.NewEngine(users, recorder, cfg.Snapshots)

	instance := &Instance{
		Users:    users,
		Engine:   engine,
		recorder: recorder,
	}

	if users.Empty() {
		if err := users.AddUser(BootstrapUser, "", auth.RoleAdmin); err != nil {
			return nil, err
		}
		if err := engine.Login(BootstrapUser, ""); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// AddUser registers a user. With no active session the new account is
// logged in right away, so a fresh shell can start working without a
// separate login; an existing session stays bound to its user.
func (instance *Instance) AddUser(username, password string, role auth.Role) error {
	if err := instance.Users.AddUser(username, password, role); err != nil {
		return err
	}
	instance.recordUserEvent("add_user", username)
	if _, ok := instance.Engine.CurrentUser(); !ok {
		return instance.Engine.Login(username, password)
	}
	return nil
}

// SetRole changes a user's global role. The acting user must be an
// admin; auth.Manager enforces that.
func (instance *Instance) SetRole(target string, role auth.Role) error {
	current, ok := instance.Engine.CurrentUser()
	if !ok {
		return &db.AuthRequiredError{}
	}
	if err := instance.Users.SetRole(current.Username, target, role); err != nil {
		return err
	}
	instance.recordUserEvent("set_role", target+" to "+string(role))
	return nil
}

// ChangePassword replaces the current user's password.
func (instance *Instance) ChangePassword(password string) error {
	current, ok := instance.Engine.CurrentUser()
	if !ok {
		return &db.AuthRequiredError{}
	}
	if err := instance.Users.SetPassword(current.Username, password); err != nil {
		return err
	}
	instance.recordUserEvent("change_password", "")
	return nil
}

func (instance *Instance) recordUserEvent(action, detail string) {
	user := ""
	if current, ok := instance.Engine.CurrentUser(); ok {
		user = current.Username
	}
	// Best-effort, same as the engine's own events.
	_ = instance.recorder.Record(audit.Event{User: user, Action: action, Detail: detail})
}
