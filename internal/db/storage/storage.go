// Package storage declares the document storage contract shared by all
// backends, together with the sentinel errors the backends answer with.
package storage

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/quirknotes/internal/note"
	"github.com/patric-chuzhbe/quirknotes/internal/user"
)

// ErrUserExists is returned by CreateUser when the username is already taken.
// The unique constraint of the backend is the authoritative conflict signal.
var ErrUserExists = errors.New("username already exists")

// ErrUserNotFound is returned by FindUser when no such username is registered.
var ErrUserNotFound = errors.New("user not found")

// ErrNoteNotFound is returned when no note matches the (id, username) filter,
// which covers both nonexistent notes and notes owned by someone else.
var ErrNoteNotFound = errors.New("note not found")

// Storage is the document store behind the service layer. Every mutation
// targets at most one document identified by a unique key or a unique
// (id, username) filter, so backends need no explicit locking beyond their
// own single-document atomicity.
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) error

	FindUser(ctx context.Context, username string) (*user.User, error)

	InsertNote(ctx context.Context, theNote *note.Note) error

	FindNote(ctx context.Context, noteID, username string) (*note.Note, error)

	FindUserNotes(ctx context.Context, username string) ([]note.Note, error)

	DeleteNote(ctx context.Context, noteID, username string) error

	// UpdateNote performs a partial merge: an empty title or content keeps
	// the stored value. Answers ErrNoteNotFound when nothing matched.
	UpdateNote(ctx context.Context, noteID, username, title, content string) error

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfNotes(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
