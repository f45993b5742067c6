// Package aetherdb provides a small in-memory relational engine with
// typed columns, per-table access control and encrypted snapshots.
//
// # Quick Start
//
// Open an instance and run statements:
//
//	instance, _ := aetherdb.Open(aetherdb.Config{})
//	engine := instance.Engine
//
//	engine.Execute("CREATE TABLE users (id INT, name STR, birth DATE)")
//	engine.Execute("INSERT INTO users (id, name, birth) VALUES (1, 'Alice', '1990-04-10')")
//
//	result, _ := engine.Execute("SELECT id, name FROM users WHERE id = 1")
//	result.Display()
//
// A fresh instance bootstraps an admin account named aether with an
// empty password and logs it in, so the first real users can be
// registered immediately.
//
// # Supported SQL
//
// The dialect is deliberately small:
//   - CREATE TABLE with INT, STR and DATE columns
//   - INSERT, SELECT, UPDATE, DELETE
//   - WHERE with comma-separated equality conditions, combined with AND
//   - ALTER TABLE ... RENAME TO / ADD COLUMN
//
// # Access Control
//
// Authorization is two-tier. Each user carries a global role (admin,
// user or readonly) and each table carries an ACL granting read, write
// and admin per user. The role gates catalog changes: creating,
// renaming and extending tables needs a non-readonly role, save and
// load need the admin role. Row reads and writes, grant and revoke
// answer to the table ACL alone, so a global admin without an ACL
// entry is refused like any other user.
package aetherdb
