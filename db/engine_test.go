package db

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"

	"github.com/aetherdb/aetherdb/audit"
	"github.com/aetherdb/aetherdb/auth"
	"github.com/aetherdb/aetherdb/core"
	"github.com/aetherdb/aetherdb/op"
	"github.com/aetherdb/aetherdb/store"
)

// memoryStore keeps snapshots in memory, round-tripping through the
// real codec.
type memoryStore struct {
	blobs map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{blobs: make(map[string][]byte)}
}

func (s *memoryStore) Save(path string, tables map[string]*op.Table) error {
	data, err := store.Serialize(tables)
	if err != nil {
		return err
	}
	s.blobs[path] = data
	return nil
}

func (s *memoryStore) Load(path string) (map[string]*op.Table, error) {
	data, ok := s.blobs[path]
	if !ok {
		return nil, errors.New("snapshot not found")
	}
	return store.Deserialize(data)
}

func setupTestEngine(t *testing.T) (*Engine, *audit.FileRecorder) {
	t.Helper()

	manager := auth.NewManager()
	for _, u := range []struct {
		name, password string
		role           auth.Role
	}{
		{"alice", "secret", auth.RoleAdmin},
		{"bob", "hunter2", auth.RoleUser},
		{"carol", "letmein", auth.RoleReadonly},
	} {
		if err := manager.AddUser(u.name, u.password, u.role); err != nil {
			t.Fatalf("AddUser failed: %v", err)
		}
	}

	recorder := audit.NewFileRecorder(memfs.New(), "audit.log")
	engine := NewEngine(manager, recorder, newMemoryStore())

	if err := engine.Login("alice", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return engine, recorder
}

func mustExecute(t *testing.T, engine *Engine, query string) Result {
	t.Helper()
	result, err := engine.Execute(query)
	if err != nil {
		t.Fatalf("Execute(%q) failed: %v", query, err)
	}
	return result
}

func login(t *testing.T, engine *Engine, username, password string) {
	t.Helper()
	if err := engine.Login(username, password); err != nil {
		t.Fatalf("Login(%s) failed: %v", username, err)
	}
}

func TestCreateInsertSelect(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT, name STR, birth DATE)")
	mustExecute(t, engine, "INSERT INTO users (id, name, birth) VALUES (1, 'Alice', '1990-04-10')")
	mustExecute(t, engine, "INSERT INTO users (id, name, birth) VALUES ('2', 'Bob', '1985-12-01')")

	result := mustExecute(t, engine, "SELECT id, name FROM users").(QueryResult)
	if !reflect.DeepEqual(result.Columns, []string{"id", "name"}) {
		t.Errorf("unexpected columns: %v", result.Columns)
	}
	expected := [][]string{{"1", "Alice"}, {"2", "Bob"}}
	if !reflect.DeepEqual(result.Data, expected) {
		t.Errorf("unexpected data: %v", result.Data)
	}
	if result.RecordsRead != 2 {
		t.Errorf("expected 2 records read, got %d", result.RecordsRead)
	}
}

func TestWhereCoercion(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT, name STR)")
	mustExecute(t, engine, "INSERT INTO users (id, name) VALUES (1, 'Alice')")
	mustExecute(t, engine, "INSERT INTO users (id, name) VALUES (2, 'Bob')")

	// Quoted integer text coerces against the INT column and matches.
	result := mustExecute(t, engine, "SELECT name FROM users WHERE id = '1'").(QueryResult)
	if !reflect.DeepEqual(result.Data, [][]string{{"Alice"}}) {
		t.Errorf("unexpected data: %v", result.Data)
	}

	// Uncoercible text against an INT column matches nothing.
	result = mustExecute(t, engine, "SELECT name FROM users WHERE id = 'abc'").(QueryResult)
	if len(result.Data) != 0 {
		t.Errorf("expected no rows, got %v", result.Data)
	}

	// Conjunctive conditions must all hold.
	result = mustExecute(t, engine, "SELECT name FROM users WHERE id = 1, name = 'Bob'").(QueryResult)
	if len(result.Data) != 0 {
		t.Errorf("expected no rows, got %v", result.Data)
	}
}

func TestSelectUnknownColumn(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")

	_, err := engine.Execute("SELECT ghost FROM users")
	var missing *core.MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingColumnError, got %T: %v", err, err)
	}
}

func TestInsertTypeError(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT, name STR)")

	_, err := engine.Execute("INSERT INTO users (id, name) VALUES ('abc', 'Alice')")
	var typeErr *core.TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %T: %v", err, err)
	}

	result := mustExecute(t, engine, "SELECT id FROM users").(QueryResult)
	if len(result.Data) != 0 {
		t.Error("failed insert must not leave a row behind")
	}
}

func TestUpdateAndDeleteCounts(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT, name STR)")
	mustExecute(t, engine, "INSERT INTO users (id, name) VALUES (1, 'Alice')")
	mustExecute(t, engine, "INSERT INTO users (id, name) VALUES (2, 'Alice')")
	mustExecute(t, engine, "INSERT INTO users (id, name) VALUES (3, 'Bob')")

	result := mustExecute(t, engine, "UPDATE users SET name = 'Alicia' WHERE name = 'Alice'").(CommitResult)
	if result.RecordsUpdated != 2 {
		t.Errorf("expected 2 records updated, got %d", result.RecordsUpdated)
	}

	result = mustExecute(t, engine, "DELETE FROM users WHERE name = 'Alicia'").(CommitResult)
	if result.RecordsDeleted != 2 {
		t.Errorf("expected 2 records deleted, got %d", result.RecordsDeleted)
	}

	// Matching nothing updates and deletes nothing.
	result = mustExecute(t, engine, "DELETE FROM users WHERE name = 'Alicia'").(CommitResult)
	if result.RecordsDeleted != 0 {
		t.Errorf("expected 0 records deleted, got %d", result.RecordsDeleted)
	}
}

func TestAlterRenameKeepsRowsAndACL(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")
	mustExecute(t, engine, "INSERT INTO users (id) VALUES (1)")
	if err := engine.Grant("users", "bob", op.PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	mustExecute(t, engine, "ALTER TABLE users RENAME TO members")

	if _, err := engine.Execute("SELECT id FROM users"); err == nil {
		t.Error("old name should be gone")
	}
	result := mustExecute(t, engine, "SELECT id FROM members").(QueryResult)
	if len(result.Data) != 1 {
		t.Errorf("rows should survive a rename, got %v", result.Data)
	}

	perms, err := engine.Permissions("members")
	if err != nil {
		t.Fatalf("Permissions failed: %v", err)
	}
	if !perms["bob"][op.PermRead] {
		t.Error("ACL should survive a rename")
	}
}

func TestAlterRenameCollision(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")
	mustExecute(t, engine, "CREATE TABLE members (id INT)")

	_, err := engine.Execute("ALTER TABLE users RENAME TO members")
	var exists *AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected *AlreadyExistsError, got %T: %v", err, err)
	}
}

func TestAlterAddColumnBackfillsNull(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")
	mustExecute(t, engine, "INSERT INTO users (id) VALUES (1)")
	mustExecute(t, engine, "ALTER TABLE users ADD COLUMN nickname STR")

	result := mustExecute(t, engine, "SELECT id, nickname FROM users").(QueryResult)
	if !reflect.DeepEqual(result.Data, [][]string{{"1", "NULL"}}) {
		t.Errorf("unexpected data: %v", result.Data)
	}

	// New rows must provide the new column.
	if _, err := engine.Execute("INSERT INTO users (id) VALUES (2)"); err == nil {
		t.Error("insert without the new column should fail")
	}
	mustExecute(t, engine, "INSERT INTO users (id, nickname) VALUES (2, 'Bee')")
}

func TestCreateTableDuplicate(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")

	_, err := engine.Execute("CREATE TABLE users (id INT)")
	var exists *AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected *AlreadyExistsError, got %T: %v", err, err)
	}
}

func TestCreateTableDuplicateColumn(t *testing.T) {
	engine, _ := setupTestEngine(t)

	_, err := engine.Execute("CREATE TABLE users (id INT, id STR)")
	var exists *op.ColumnExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected *ColumnExistsError, got %T: %v", err, err)
	}
}

func TestUnknownTable(t *testing.T) {
	engine, _ := setupTestEngine(t)

	_, err := engine.Execute("SELECT id FROM ghost")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func TestRequiresLogin(t *testing.T) {
	manager := auth.NewManager()
	engine := NewEngine(manager, nil, nil)

	_, err := engine.Execute("CREATE TABLE users (id INT)")
	var authErr *AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthRequiredError, got %T: %v", err, err)
	}
}

func TestTablePermissions(t *testing.T) {
	engine, _ := setupTestEngine(t)

	login(t, engine, "bob", "hunter2")
	mustExecute(t, engine, "CREATE TABLE notes (id INT, body STR)")
	mustExecute(t, engine, "INSERT INTO notes (id, body) VALUES (1, 'hello')")

	// carol holds nothing on notes.
	login(t, engine, "carol", "letmein")
	_, err := engine.Execute("SELECT body FROM notes")
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError, got %T: %v", err, err)
	}

	// The owner grants read; carol can now select but still not write.
	login(t, engine, "bob", "hunter2")
	if err := engine.Grant("notes", "carol", op.PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	login(t, engine, "carol", "letmein")
	result := mustExecute(t, engine, "SELECT body FROM notes").(QueryResult)
	if len(result.Data) != 1 {
		t.Errorf("expected 1 row, got %v", result.Data)
	}
	if _, err := engine.Execute("INSERT INTO notes (id, body) VALUES (2, 'nope')"); err == nil {
		t.Error("carol should not be able to insert")
	}
}

func TestReadonlyRoleWriteGrantAllowsRowWrites(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE notes (id INT)")
	for _, perm := range []string{op.PermRead, op.PermWrite} {
		if err := engine.Grant("notes", "carol", perm); err != nil {
			t.Fatalf("Grant failed: %v", err)
		}
	}

	// The readonly role gates catalog changes, not row writes; a write
	// grant on the table is all an insert needs.
	login(t, engine, "carol", "letmein")
	mustExecute(t, engine, "INSERT INTO notes (id) VALUES (1)")
	result := mustExecute(t, engine, "UPDATE notes SET id = 2 WHERE id = 1").(CommitResult)
	if result.RecordsUpdated != 1 {
		t.Errorf("expected 1 record updated, got %d", result.RecordsUpdated)
	}
	result = mustExecute(t, engine, "DELETE FROM notes WHERE id = 2").(CommitResult)
	if result.RecordsDeleted != 1 {
		t.Errorf("expected 1 record deleted, got %d", result.RecordsDeleted)
	}
}

func TestReadonlyRoleBlocksCatalogChanges(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE notes (id INT)")
	if err := engine.Grant("notes", "carol", op.PermAdmin); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	login(t, engine, "carol", "letmein")
	var forbidden *ForbiddenError
	if _, err := engine.Execute("CREATE TABLE other (id INT)"); !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError for create, got %T: %v", err, err)
	}
	// Table admin does not help; rename and add column also need a
	// non-readonly role.
	if _, err := engine.Execute("ALTER TABLE notes RENAME TO memos"); !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError for rename, got %T: %v", err, err)
	}
	if _, err := engine.Execute("ALTER TABLE notes ADD COLUMN tag STR"); !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError for add column, got %T: %v", err, err)
	}

	names, err := engine.Tables()
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"notes"}) {
		t.Errorf("failed statements must not change the catalog, got %v", names)
	}
}

func TestGlobalAdminRoleDoesNotBypassACL(t *testing.T) {
	engine, _ := setupTestEngine(t)

	login(t, engine, "bob", "hunter2")
	mustExecute(t, engine, "CREATE TABLE notes (id INT)")
	mustExecute(t, engine, "INSERT INTO notes (id) VALUES (1)")

	// alice is a global admin but holds no entry in the notes ACL, so
	// the table refuses her like anyone else.
	login(t, engine, "alice", "secret")
	_, err := engine.Execute("SELECT id FROM notes")
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError, got %T: %v", err, err)
	}
	if err := engine.Grant("notes", "alice", op.PermRead); !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError for grant, got %T: %v", err, err)
	}

	// A grant from the table admin opens it, same as for any user.
	login(t, engine, "bob", "hunter2")
	if err := engine.Grant("notes", "alice", op.PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	login(t, engine, "alice", "secret")
	result := mustExecute(t, engine, "SELECT id FROM notes").(QueryResult)
	if len(result.Data) != 1 {
		t.Errorf("expected 1 row, got %v", result.Data)
	}
}

func TestGrantRequiresTableAdmin(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")
	if err := engine.Grant("users", "bob", op.PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	// bob holds read only, so he cannot grant.
	login(t, engine, "bob", "hunter2")
	err := engine.Grant("users", "carol", op.PermRead)
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError, got %T: %v", err, err)
	}
}

func TestGrantUnknownPermission(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")

	err := engine.Grant("users", "bob", "execute")
	var unknown *UnknownPermissionError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownPermissionError, got %T: %v", err, err)
	}
}

func TestRevoke(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")
	if err := engine.Grant("users", "bob", op.PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if err := engine.Revoke("users", "bob", op.PermRead); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	login(t, engine, "bob", "hunter2")
	if _, err := engine.Execute("SELECT id FROM users"); err == nil {
		t.Error("bob should no longer read users")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT, name STR)")
	mustExecute(t, engine, "INSERT INTO users (id, name) VALUES (1, 'Alice')")

	if err := engine.Save("snap"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	mustExecute(t, engine, "DELETE FROM users")
	if err := engine.Load("snap"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	result := mustExecute(t, engine, "SELECT id, name FROM users").(QueryResult)
	if !reflect.DeepEqual(result.Data, [][]string{{"1", "Alice"}}) {
		t.Errorf("unexpected data after load: %v", result.Data)
	}
}

func TestSaveRequiresAdmin(t *testing.T) {
	engine, _ := setupTestEngine(t)

	login(t, engine, "bob", "hunter2")
	err := engine.Save("snap")
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected *ForbiddenError, got %T: %v", err, err)
	}
}

func TestTablesSorted(t *testing.T) {
	engine, _ := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE zebra (id INT)")
	mustExecute(t, engine, "CREATE TABLE apple (id INT)")

	names, err := engine.Tables()
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"apple", "zebra"}) {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestAuditTrail(t *testing.T) {
	engine, recorder := setupTestEngine(t)

	mustExecute(t, engine, "CREATE TABLE users (id INT)")
	mustExecute(t, engine, "INSERT INTO users (id) VALUES (1)")

	events, err := recorder.Tail(0)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	actions := make([]string, len(events))
	for i, event := range events {
		actions[i] = event.Action
	}
	if !reflect.DeepEqual(actions, []string{"login", "create_table", "insert"}) {
		t.Errorf("unexpected audit trail: %v", actions)
	}
	if events[1].User != "alice" || events[1].Detail != "users" {
		t.Errorf("unexpected event: %+v", events[1])
	}
}

func TestSyntaxErrorFromExecute(t *testing.T) {
	engine, _ := setupTestEngine(t)

	if _, err := engine.Execute("SELEKT id FROM users"); err == nil {
		t.Fatal("expected syntax error")
	}
}
