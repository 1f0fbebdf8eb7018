// Package service implements the business operations of the notes backend:
// account registration and verification, and the five owner-scoped note
// operations. Every operation is a single storage call after validation.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/quirknotes/internal/db/storage"
	"github.com/patric-chuzhbe/quirknotes/internal/models"
	"github.com/patric-chuzhbe/quirknotes/internal/note"
	"github.com/patric-chuzhbe/quirknotes/internal/user"
)

// ErrUserExists is returned by Register when the username is already taken.
var ErrUserExists = storage.ErrUserExists

// ErrNoteNotFound is returned when no note matches the (id, owner) filter.
var ErrNoteNotFound = storage.ErrNoteNotFound

// ErrInvalidNoteID is returned when a note identifier is not a valid UUID.
// The check runs before any storage call.
var ErrInvalidNoteID = errors.New("invalid note ID")

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) error
	FindUser(ctx context.Context, username string) (*user.User, error)
}

type notesKeeper interface {
	InsertNote(ctx context.Context, theNote *note.Note) error
	FindNote(ctx context.Context, noteID, username string) (*note.Note, error)
	FindUserNotes(ctx context.Context, username string) ([]note.Note, error)
	DeleteNote(ctx context.Context, noteID, username string) error
	UpdateNote(ctx context.Context, noteID, username, title, content string) error
}

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)
	GetNumberOfNotes(ctx context.Context) (int64, error)
}

type storager interface {
	userKeeper
	notesKeeper
	statsKeeper
}

// Service holds the storage dependency shared by all operations.
type Service struct {
	db storager
}

// New creates a Service on top of the given storage.
func New(db storager) *Service {
	return &Service{db: db}
}

// Register hashes the password with bcrypt and stores the new account.
// The storage unique constraint decides the duplicate case: a taken
// username answers ErrUserExists regardless of the supplied password.
func (s *Service) Register(ctx context.Context, username, password string) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.CreateUser(
		ctx,
		&user.User{
			Username:     username,
			PasswordHash: string(passwordHash),
		},
	)
}

// Authenticate verifies the password against the stored bcrypt hash.
// An unknown username and a wrong password are indistinguishable to the
// caller: both answer false with no error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (bool, error) {
	usr, err := s.db.FindUser(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password))
	if err != nil {
		return false, nil
	}

	return true, nil
}

// CreateNote stores a new note for the owner and returns its generated ID.
func (s *Service) CreateNote(ctx context.Context, title, content, username string) (string, error) {
	theNote := &note.Note{
		ID:       uuid.New().String(),
		Title:    title,
		Content:  content,
		Username: username,
	}

	if err := s.db.InsertNote(ctx, theNote); err != nil {
		return "", err
	}

	return theNote.ID, nil
}

// GetNote returns the owner's note with the given ID.
func (s *Service) GetNote(ctx context.Context, noteID, username string) (*note.Note, error) {
	if err := validateNoteID(noteID); err != nil {
		return nil, err
	}

	return s.db.FindNote(ctx, noteID, username)
}

// GetUserNotes returns every note owned by the user, empty slice included.
func (s *Service) GetUserNotes(ctx context.Context, username string) ([]note.Note, error) {
	return s.db.FindUserNotes(ctx, username)
}

// DeleteNote removes the owner's note with the given ID.
func (s *Service) DeleteNote(ctx context.Context, noteID, username string) error {
	if err := validateNoteID(noteID); err != nil {
		return err
	}

	return s.db.DeleteNote(ctx, noteID, username)
}

// EditNote merges the supplied fields into the owner's note. An empty title
// or content keeps the stored value; callers reject the both-empty case
// before getting here. Returns the update outcome on success.
func (s *Service) EditNote(
	ctx context.Context,
	noteID,
	username,
	title,
	content string,
) (models.EditResult, error) {
	if err := validateNoteID(noteID); err != nil {
		return models.EditResult{}, err
	}

	if err := s.db.UpdateNote(ctx, noteID, username, title, content); err != nil {
		return models.EditResult{}, err
	}

	return models.EditResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

// GetStats returns the total amounts of users and notes.
func (s *Service) GetStats(ctx context.Context) (models.StatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.StatsResponse{}, err
	}

	notes, err := s.db.GetNumberOfNotes(ctx)
	if err != nil {
		return models.StatsResponse{}, err
	}

	return models.StatsResponse{Users: users, Notes: notes}, nil
}

func validateNoteID(noteID string) error {
	if _, err := uuid.Parse(noteID); err != nil {
		return ErrInvalidNoteID
	}

	return nil
}
