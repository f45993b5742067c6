// Package auth manages users, passwords and global roles.
//
// Passwords are hashed with bcrypt. An account created with an empty
// password stores no hash and authenticates only against the empty
// password; the bootstrap admin starts out this way until a real
// password is set.
//
// The engine talks to this package through the Authenticator interface,
// so a deployment can plug in its own credential backend.
package auth
