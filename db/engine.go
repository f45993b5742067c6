package db

import (
	"log"
	"sort"
	"sync"

	"github.com/aetherdb/aetherdb/audit"
	"github.com/aetherdb/aetherdb/auth"
	"github.com/aetherdb/aetherdb/core"
	"github.com/aetherdb/aetherdb/op"
	"github.com/aetherdb/aetherdb/store"
)

// Engine holds the table catalog and the current session. A single
// mutex serializes all access; operations are atomic and the catalog
// never sees a half-applied statement.
type Engine struct {
	mu        sync.Mutex
	tables    map[string]*op.Table
	principal *core.Identity

	auth      auth.Authenticator
	recorder  audit.Recorder
	snapshots store.Store
}

// NewEngine creates an empty engine. The recorder and snapshot store
// may be nil; a nil recorder discards events and a nil store disables
// save and load.
func NewEngine(authenticator auth.Authenticator, recorder audit.Recorder, snapshots store.Store) *Engine {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Engine{
		tables:    make(map[string]*op.Table),
		auth:      authenticator,
		recorder:  recorder,
		snapshots: snapshots,
	}
}

// Login authenticates and binds the session to the user.
func (engine *Engine) Login(username, password string) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	identity, err := engine.auth.Authenticate(username, password)
	if err != nil {
		return err
	}
	engine.principal = &identity
	engine.record("login", "")
	return nil
}

// SetPrincipal binds the session to an already-verified identity, e.g.
// after token validation in the server.
func (engine *Engine) SetPrincipal(identity core.Identity) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.principal = &identity
}

// Logout clears the session.
func (engine *Engine) Logout() {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.principal != nil {
		engine.record("logout", "")
	}
	engine.principal = nil
}

// CurrentUser returns the logged-in identity, if any.
func (engine *Engine) CurrentUser() (core.Identity, bool) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.principal == nil {
		return core.Identity{}, false
	}
	return *engine.principal, true
}

// CreateTable creates an empty table. The creator receives read, write
// and admin on it.
func (engine *Engine) CreateTable(name string, columns []core.Column) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	principal, err := engine.requireWriter("create table", "")
	if err != nil {
		return err
	}
	if _, ok := engine.tables[name]; ok {
		return &AlreadyExistsError{Table: name}
	}
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col.Name] {
			return &op.ColumnExistsError{Table: name, Column: col.Name}
		}
		seen[col.Name] = true
	}

	engine.tables[name] = op.NewTable(name, core.NewSchema(columns), principal.Username)
	engine.record("create_table", name)
	return nil
}

// Insert validates and appends one row.
func (engine *Engine) Insert(table string, row core.Row) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	t, err := engine.requireTable(table, op.PermWrite, "insert")
	if err != nil {
		return err
	}
	if err := t.Insert(row); err != nil {
		return err
	}
	engine.record("insert", table)
	return nil
}

// Select returns copies of the rows matching all filters.
func (engine *Engine) Select(table string, filters core.Row) ([]core.Row, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	t, err := engine.requireTable(table, op.PermRead, "select")
	if err != nil {
		return nil, err
	}
	rows := t.Select(filters)
	engine.record("select", table)
	return rows, nil
}

// Update applies the assignments to every matching row and returns the
// number of rows changed.
func (engine *Engine) Update(table string, filters core.Row, assignments []core.Assignment) (int, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	t, err := engine.requireTable(table, op.PermWrite, "update")
	if err != nil {
		return 0, err
	}
	count, err := t.Update(filters, assignments)
	if err != nil {
		return count, err
	}
	engine.record("update", table)
	return count, nil
}

// Delete removes every matching row and returns the number removed.
func (engine *Engine) Delete(table string, filters core.Row) (int, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	t, err := engine.requireTable(table, op.PermWrite, "delete")
	if err != nil {
		return 0, err
	}
	count := t.Delete(filters)
	engine.record("delete", table)
	return count, nil
}

// RenameTable renames a table, keeping rows and ACL intact. Needs a
// non-readonly role plus admin on the table.
func (engine *Engine) RenameTable(oldName, newName string) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if _, err := engine.requireWriter("rename table", oldName); err != nil {
		return err
	}
	t, err := engine.requireTable(oldName, op.PermAdmin, "rename table")
	if err != nil {
		return err
	}
	if _, ok := engine.tables[newName]; ok {
		return &AlreadyExistsError{Table: newName}
	}

	delete(engine.tables, oldName)
	t.Name = newName
	engine.tables[newName] = t
	engine.record("rename_table", oldName+" to "+newName)
	return nil
}

// AddColumn appends a column to a table's schema, backfilling existing
// rows with NULL.
func (engine *Engine) AddColumn(table string, column core.Column) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if _, err := engine.requireWriter("add column", table); err != nil {
		return err
	}
	t, err := engine.requireTable(table, op.PermAdmin, "add column")
	if err != nil {
		return err
	}
	if err := t.AddColumn(column); err != nil {
		return err
	}
	engine.record("add_column", table+"."+column.Name)
	return nil
}

// Grant gives a user a permission on a table. Only a user with admin on
// the table may grant; the global admin role does not qualify.
func (engine *Engine) Grant(table, user, perm string) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if !validPermission(perm) {
		return &UnknownPermissionError{Permission: perm}
	}
	t, err := engine.requireTable(table, op.PermAdmin, "grant")
	if err != nil {
		return err
	}
	t.Grant(user, perm)
	engine.record("grant", perm+" on "+table+" to "+user)
	return nil
}

// Revoke removes a user's permission on a table.
func (engine *Engine) Revoke(table, user, perm string) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if !validPermission(perm) {
		return &UnknownPermissionError{Permission: perm}
	}
	t, err := engine.requireTable(table, op.PermAdmin, "revoke")
	if err != nil {
		return err
	}
	t.Revoke(user, perm)
	engine.record("revoke", perm+" on "+table+" from "+user)
	return nil
}

// Tables returns the table names sorted alphabetically.
func (engine *Engine) Tables() ([]string, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if _, err := engine.requirePrincipal(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(engine.tables))
	for name := range engine.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Describe returns a table's schema.
func (engine *Engine) Describe(table string) (core.Schema, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	t, err := engine.requireTable(table, op.PermRead, "describe")
	if err != nil {
		return core.Schema{}, err
	}
	return t.Schema, nil
}

// Permissions returns a table's ACL as an independent copy.
func (engine *Engine) Permissions(table string) (map[string]op.PermSet, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	t, err := engine.requireTable(table, op.PermRead, "describe")
	if err != nil {
		return nil, err
	}
	out := make(map[string]op.PermSet, len(t.ACL))
	for user, set := range t.ACL {
		out[user] = set.Clone()
	}
	return out, nil
}

// Save writes an encrypted snapshot of the catalog. Global admins only.
func (engine *Engine) Save(path string) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.requireAdmin("save"); err != nil {
		return err
	}
	if engine.snapshots == nil {
		return &ForbiddenError{User: engine.principal.Username, Action: "save: no snapshot store configured"}
	}
	if err := engine.snapshots.Save(path, engine.tables); err != nil {
		return err
	}
	engine.record("save", path)
	return nil
}

// Load replaces the catalog with a snapshot. Global admins only.
func (engine *Engine) Load(path string) error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.requireAdmin("load"); err != nil {
		return err
	}
	if engine.snapshots == nil {
		return &ForbiddenError{User: engine.principal.Username, Action: "load: no snapshot store configured"}
	}
	tables, err := engine.snapshots.Load(path)
	if err != nil {
		return err
	}
	engine.tables = tables
	engine.record("load", path)
	return nil
}

// requirePrincipal fails unless a user is logged in. Callers hold the
// mutex.
func (engine *Engine) requirePrincipal() (core.Identity, error) {
	if engine.principal == nil {
		return core.Identity{}, &AuthRequiredError{}
	}
	return *engine.principal, nil
}

// requireWriter fails for anonymous sessions and readonly users.
func (engine *Engine) requireWriter(action, table string) (core.Identity, error) {
	principal, err := engine.requirePrincipal()
	if err != nil {
		return core.Identity{}, err
	}
	role, err := engine.auth.RoleOf(principal.Username)
	if err != nil {
		return core.Identity{}, err
	}
	if role == auth.RoleReadonly {
		return core.Identity{}, &ForbiddenError{User: principal.Username, Action: action, Table: table}
	}
	return principal, nil
}

// requireAdmin fails unless the current user holds the global admin
// role.
func (engine *Engine) requireAdmin(action string) error {
	principal, err := engine.requirePrincipal()
	if err != nil {
		return err
	}
	role, err := engine.auth.RoleOf(principal.Username)
	if err != nil {
		return err
	}
	if role != auth.RoleAdmin {
		return &ForbiddenError{User: principal.Username, Action: action}
	}
	return nil
}

// requireTable resolves the table and checks the session's per-table
// permission. Global roles never substitute here: row operations and
// grant/revoke answer to the table ACL alone, so an admin-role user
// without an ACL entry is refused like anyone else.
func (engine *Engine) requireTable(table, perm, action string) (*op.Table, error) {
	principal, err := engine.requirePrincipal()
	if err != nil {
		return nil, err
	}

	t, ok := engine.tables[table]
	if !ok {
		return nil, &NotFoundError{Table: table}
	}

	if !t.HasPermission(principal.Username, perm) {
		return nil, &ForbiddenError{User: principal.Username, Action: action, Table: table}
	}
	return t, nil
}

// record logs an audit event for the current session. Recording is
// best-effort; failures are logged and swallowed.
func (engine *Engine) record(action, detail string) {
	user := ""
	if engine.principal != nil {
		user = engine.principal.Username
	}
	if err := engine.recorder.Record(audit.Event{User: user, Action: action, Detail: detail}); err != nil {
		log.Printf("audit record failed: %v", err)
	}
}

func validPermission(perm string) bool {
	switch perm {
	case op.PermRead, op.PermWrite, op.PermAdmin:
		return true
	}
	return false
}
