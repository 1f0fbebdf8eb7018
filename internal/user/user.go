// Package user defines the user model used throughout the application,
// particularly for registration, login and note ownership.
package user

// User represents a registered account.
// Usernames are unique; the uniqueness is enforced by the storage layer.
type User struct {
	// Username is the unique identifier of the account.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the account password.
	// The plaintext password is never persisted. The struct is serialized
	// only by the file backend; no HTTP response ever carries it.
	PasswordHash string `json:"passwordHash"`
}
