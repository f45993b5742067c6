// Package audit records engine activity as JSON lines.
//
// Each event names the acting user, the action and a short detail
// string. The engine records events best-effort: a recorder failure is
// logged and the operation still succeeds.
package audit
