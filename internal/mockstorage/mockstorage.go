// Package mockstorage provides a testify-based mock implementation
// of the storage interface.
// It is used for unit testing the service and HTTP handlers by simulating
// storage behavior, including failure injection.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/quirknotes/internal/note"
	"github.com/patric-chuzhbe/quirknotes/internal/user"
)

// StorageMock is a testify mock that implements the storage interface.
//
// Use it in service and router tests to simulate database behavior.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks inserting a new user.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// FindUser mocks fetching a user by username.
func (m *StorageMock) FindUser(ctx context.Context, username string) (*user.User, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// InsertNote mocks inserting a new note.
func (m *StorageMock) InsertNote(ctx context.Context, theNote *note.Note) error {
	args := m.Called(ctx, theNote)
	return args.Error(0)
}

// FindNote mocks the owner-scoped note lookup.
func (m *StorageMock) FindNote(ctx context.Context, noteID, username string) (*note.Note, error) {
	args := m.Called(ctx, noteID, username)
	theNote, _ := args.Get(0).(*note.Note)
	return theNote, args.Error(1)
}

// FindUserNotes mocks fetching every note of an owner.
func (m *StorageMock) FindUserNotes(ctx context.Context, username string) ([]note.Note, error) {
	args := m.Called(ctx, username)
	notes, _ := args.Get(0).([]note.Note)
	return notes, args.Error(1)
}

// DeleteNote mocks the owner-scoped note removal.
func (m *StorageMock) DeleteNote(ctx context.Context, noteID, username string) error {
	args := m.Called(ctx, noteID, username)
	return args.Error(0)
}

// UpdateNote mocks the owner-scoped partial merge.
func (m *StorageMock) UpdateNote(ctx context.Context, noteID, username, title, content string) error {
	args := m.Called(ctx, noteID, username, title, content)
	return args.Error(0)
}

// GetNumberOfUsers mocks the user count used by the stats endpoint.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfNotes mocks the note count used by the stats endpoint.
func (m *StorageMock) GetNumberOfNotes(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the storage resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
