// Package op implements table operations: row storage, filtering,
// mutation and the per-table access control list.
//
// A Table couples three things: an ordered schema, the validated rows,
// and an ACL mapping usernames to permission sets drawn from read,
// write and admin. Admin implies the other two. Revoking a user's last
// permission removes their ACL entry, so the ACL never carries empty
// sets.
//
// Tables do no permission checking themselves; the engine decides who
// may call what and serializes access.
package op
