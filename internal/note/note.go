// Package note defines the note model owned by a single user.
package note

// Note is a personal text note. Every note belongs to exactly one user;
// all storage lookups filter by (ID, Username) jointly, so a note is
// invisible to anyone but its owner.
type Note struct {
	// ID is the unique identifier of the note, meaning a UUID.
	ID string `json:"id"`

	// Title is the note title.
	Title string `json:"title"`

	// Content is the note body.
	Content string `json:"content"`

	// Username is the owner of the note.
	Username string `json:"username"`
}
