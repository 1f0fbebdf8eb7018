// Package postgresdb provides a PostgreSQL-based implementation of the storage
// interface for persisting users and their notes.
// Username uniqueness is enforced by the primary key of the users table, and
// every note query is scoped to the (id, username) pair of its owner.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/quirknotes/internal/db/storage"
	"github.com/patric-chuzhbe/quirknotes/internal/note"
	"github.com/patric-chuzhbe/quirknotes/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the notes storage.
// It handles all persistence operations via a PostgreSQL database connection.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables resetting the database schema before migration.
// Used by tests that need a clean database.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
// Optionally accepts initialization options, such as WithDBPreReset.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

// CreateUser inserts a new user record. The INSERT itself is the uniqueness
// check: a unique-violation from the users primary key is mapped to
// storage.ErrUserExists, so concurrent registrations of the same username
// cannot race past each other.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) error {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)`,
		usr.Username,
		usr.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return storage.ErrUserExists
		}
		return err
	}

	return nil
}

// FindUser fetches a user by username.
// Returns storage.ErrUserNotFound when no such user is registered.
func (db *PostgresDB) FindUser(ctx context.Context, username string) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT username, password_hash FROM users WHERE username = $1`,
		username,
	)
	usr := &user.User{}
	err := row.Scan(&usr.Username, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}

	return usr, nil
}

// InsertNote creates a new note row tagged with its owner.
func (db *PostgresDB) InsertNote(ctx context.Context, theNote *note.Note) error {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO notes (id, title, content, username) VALUES ($1, $2, $3, $4)`,
		theNote.ID,
		theNote.Title,
		theNote.Content,
		theNote.Username,
	)
	if err != nil {
		return err
	}

	return nil
}

// FindNote retrieves the note matching the (id, username) pair.
// Returns storage.ErrNoteNotFound for nonexistent and foreign notes alike.
func (db *PostgresDB) FindNote(ctx context.Context, noteID, username string) (*note.Note, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, title, content, username FROM notes WHERE id = $1 AND username = $2`,
		noteID,
		username,
	)
	theNote := &note.Note{}
	err := row.Scan(&theNote.ID, &theNote.Title, &theNote.Content, &theNote.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNoteNotFound
		}
		return nil, err
	}

	return theNote, nil
}

// FindUserNotes retrieves every note owned by the given username.
// A user with zero notes gets an empty slice, not an error.
func (db *PostgresDB) FindUserNotes(ctx context.Context, username string) ([]note.Note, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, title, content, username FROM notes WHERE username = $1`,
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []note.Note{}
	for rows.Next() {
		var theNote note.Note
		err = rows.Scan(&theNote.ID, &theNote.Title, &theNote.Content, &theNote.Username)
		if err != nil {
			return nil, err
		}

		result = append(result, theNote)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteNote removes the note matching the (id, username) pair.
// Zero affected rows means there was nothing the owner could delete.
func (db *PostgresDB) DeleteNote(ctx context.Context, noteID, username string) error {
	result, err := db.database.ExecContext(
		ctx,
		`DELETE FROM notes WHERE id = $1 AND username = $2`,
		noteID,
		username,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNoteNotFound
	}

	return nil
}

// UpdateNote performs the partial merge in a single atomic UPDATE:
// NULLIF turns an empty parameter into NULL and COALESCE falls back to the
// stored column value, so an omitted field keeps its prior content.
func (db *PostgresDB) UpdateNote(ctx context.Context, noteID, username, title, content string) error {
	result, err := db.database.ExecContext(
		ctx,
		`
			UPDATE notes
				SET
					title = COALESCE(NULLIF($3, ''), title),
					content = COALESCE(NULLIF($4, ''), content)
				WHERE id = $1 AND username = $2
		`,
		noteID,
		username,
		title,
		content,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNoteNotFound
	}

	return nil
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	row := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// GetNumberOfNotes returns the total amount of stored notes.
func (db *PostgresDB) GetNumberOfNotes(ctx context.Context) (int64, error) {
	row := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Ping verifies the database connection within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(pingCtx)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	err := db.database.Close()
	if err != nil {
		return err
	}

	return nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DROP TABLE IF EXISTS notes;
			DROP TABLE IF EXISTS users;
			DROP TABLE IF EXISTS goose_db_version;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}

	return nil
}
