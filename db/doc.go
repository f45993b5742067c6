// Package db ties the pieces together: it owns the table catalog, the
// login session and the statement dispatcher.
//
// # Executing Statements
//
//	engine := db.NewEngine(manager, recorder, snapshots)
//	if err := engine.Login("alice", "secret"); err != nil {
//		// handle
//	}
//
//	result, err := engine.Execute("SELECT id, name FROM users WHERE id = 1")
//	if err != nil {
//		// handle
//	}
//	result.Display()
//
// Every operation requires a login. Authorization is two-tier: the
// global role gates catalog changes (create, rename and add column
// need a non-readonly role; save and load need the admin role) while
// row operations, grant and revoke check only the per-table ACL.
//
// A single mutex serializes all catalog access, so each statement is
// applied atomically. Audit events are recorded best-effort per
// operation; a recorder failure never fails the statement.
package db
