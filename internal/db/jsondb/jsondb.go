// Package jsondb provides a file-backed implementation of the storage
// interface. The whole dataset lives in memory and is flushed to a JSON
// file on Close. It is meant for local runs and tests, not for production.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	funk "github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/quirknotes/internal/db/storage"
	"github.com/patric-chuzhbe/quirknotes/internal/note"
	"github.com/patric-chuzhbe/quirknotes/internal/user"
)

// CacheStruct is the serialized shape of the database file.
type CacheStruct struct {
	// Users is keyed by username.
	Users map[string]user.User

	// Notes is keyed by note ID.
	Notes map[string]note.Note
}

// JSONDB is a file-backed storage. Handlers run concurrently, so every
// map access is guarded by the mutex.
type JSONDB struct {
	fileName string
	mutex    sync.RWMutex
	Cache    CacheStruct
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"Notes": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

// New loads the database file, creating an empty one when it does not exist.
func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}

	if db.Cache.Users == nil {
		db.Cache.Users = map[string]user.User{}
	}
	if db.Cache.Notes == nil {
		db.Cache.Notes = map[string]note.Note{}
	}

	return &db, nil
}

// CreateUser stores a new user. The map key plays the role of the unique
// constraint: an existing username answers storage.ErrUserExists.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, exists := db.Cache.Users[usr.Username]; exists {
		return storage.ErrUserExists
	}
	db.Cache.Users[usr.Username] = *usr

	return nil
}

// FindUser returns the user with the given username or storage.ErrUserNotFound.
func (db *JSONDB) FindUser(ctx context.Context, username string) (*user.User, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	usr, found := db.Cache.Users[username]
	if !found {
		return nil, storage.ErrUserNotFound
	}

	return &usr, nil
}

// InsertNote stores a new note under its ID.
func (db *JSONDB) InsertNote(ctx context.Context, theNote *note.Note) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.Cache.Notes[theNote.ID] = *theNote

	return nil
}

// FindNote returns the note matching (noteID, username) or storage.ErrNoteNotFound.
func (db *JSONDB) FindNote(ctx context.Context, noteID, username string) (*note.Note, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	theNote, found := db.Cache.Notes[noteID]
	if !found || theNote.Username != username {
		return nil, storage.ErrNoteNotFound
	}

	return &theNote, nil
}

// FindUserNotes returns every note owned by the given username.
// A user with zero notes gets an empty slice, not an error.
func (db *JSONDB) FindUserNotes(ctx context.Context, username string) ([]note.Note, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	allNotes := funk.Values(db.Cache.Notes).([]note.Note)
	userNotes := funk.Filter(allNotes, func(n note.Note) bool {
		return n.Username == username
	}).([]note.Note)

	if userNotes == nil {
		userNotes = []note.Note{}
	}

	return userNotes, nil
}

// DeleteNote removes the note matching (noteID, username).
func (db *JSONDB) DeleteNote(ctx context.Context, noteID, username string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	theNote, found := db.Cache.Notes[noteID]
	if !found || theNote.Username != username {
		return storage.ErrNoteNotFound
	}
	delete(db.Cache.Notes, noteID)

	return nil
}

// UpdateNote merges the supplied fields into the stored note.
// An empty title or content keeps the stored value.
func (db *JSONDB) UpdateNote(ctx context.Context, noteID, username, title, content string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	theNote, found := db.Cache.Notes[noteID]
	if !found || theNote.Username != username {
		return storage.ErrNoteNotFound
	}

	if title != "" {
		theNote.Title = title
	}
	if content != "" {
		theNote.Content = content
	}
	db.Cache.Notes[noteID] = theNote

	return nil
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

// GetNumberOfNotes returns the total amount of stored notes.
func (db *JSONDB) GetNumberOfNotes(ctx context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return int64(len(db.Cache.Notes)), nil
}

// Ping always succeeds: the dataset is already in memory.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache back to the database file.
func (db *JSONDB) Close() error {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	err := writeToJSONFile(db.fileName, db.Cache)
	if err != nil {
		return err
	}

	return nil
}
