// Package memorystorage provides an in-memory storage backend.
// It reuses the jsondb cache without a backing file, so Close is a no-op
// and nothing survives a restart.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/quirknotes/internal/db/jsondb"
	"github.com/patric-chuzhbe/quirknotes/internal/note"
	"github.com/patric-chuzhbe/quirknotes/internal/user"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users: map[string]user.User{},
				Notes: map[string]note.Note{},
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
