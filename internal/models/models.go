package models

import "github.com/patric-chuzhbe/quirknotes/internal/note"

// CredentialsRequest is the body of both POST /registerUser and POST /loginUser.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Response string `json:"response"`
	Token    string `json:"token"`
}

// PostNoteRequest is the body of POST /postNote.
type PostNoteRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// PostNoteResponse is returned on successful note creation.
type PostNoteResponse struct {
	Response   string `json:"response"`
	InsertedID string `json:"insertedId"`
}

// NoteResponse wraps a single note for GET /getNote/{noteId}.
type NoteResponse struct {
	Response note.Note `json:"response"`
}

// NotesResponse wraps the owner's notes for GET /getAllNotes.
type NotesResponse struct {
	Response []note.Note `json:"response"`
}

// ConfirmationResponse is a plain confirmation message, used by DELETE /deleteNote/{noteId}.
type ConfirmationResponse struct {
	Response string `json:"response"`
}

// EditNoteRequest is the body of PATCH /editNote/{noteId}.
// Both fields are optional; an empty value means "keep the stored one".
type EditNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// EditResult describes the outcome of a partial-merge update.
type EditResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// EditNoteResponse is returned on successful note editing.
type EditNoteResponse struct {
	Response string     `json:"response"`
	Result   EditResult `json:"result"`
}

// StatsResponse is the payload of the trusted-subnet-only stats endpoint.
type StatsResponse struct {
	Users int64 `json:"users"`
	Notes int64 `json:"notes"`
}

/// ErrorResponse is the uniform error payload: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
