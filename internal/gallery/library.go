package gallery

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/database"
)

// indexTimeFormat is fixed width so timestamps compare correctly as text.
const indexTimeFormat = "2006-01-02T15:04:05.000000000Z"

// File is one picture known to the media index.
type File struct {
	Path       string
	FolderName string
	Size       int64
	ModifiedAt time.Time
	IndexedAt  time.Time
}

// FolderOf returns the display name of the folder containing path.
func FolderOf(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// Library is the media index.
type Library interface {
	// Upsert inserts or refreshes files, all in one transaction.
	Upsert(ctx context.Context, files ...File) error

	// List returns every indexed file ordered by path.
	List(ctx context.Context) ([]File, error)

	// Count returns the number of indexed files.
	Count(ctx context.Context) (int, error)

	// Folders returns the distinct folder names.
	Folders(ctx context.Context) ([]string, error)

	// Prune deletes files last indexed before seenBefore and returns how
	// many were removed.
	Prune(ctx context.Context, seenBefore time.Time) (int64, error)
}

// SQLiteLibrary implements Library on the frame's SQLite database.
// The media table is created by the embedded migrations.
type SQLiteLibrary struct {
	db *database.DB
}

// NewSQLiteLibrary creates a library backed by db.
func NewSQLiteLibrary(db *database.DB) *SQLiteLibrary {
	return &SQLiteLibrary{db: db}
}

// Upsert inserts or refreshes files.
func (l *SQLiteLibrary) Upsert(ctx context.Context, files ...File) error {
	if len(files) == 0 {
		return nil
	}

	query := `
		INSERT INTO media (path, folder_name, size_bytes, modified_at, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			folder_name = excluded.folder_name,
			size_bytes = excluded.size_bytes,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at`

	return l.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("preparing media upsert: %w", err)
		}
		defer stmt.Close() //nolint:errcheck // Closed with the transaction

		for _, f := range files {
			if _, err := stmt.ExecContext(ctx,
				f.Path,
				f.FolderName,
				f.Size,
				formatIndexTime(f.ModifiedAt),
				formatIndexTime(f.IndexedAt),
			); err != nil {
				return fmt.Errorf("upserting %s: %w", f.Path, err)
			}
		}
		return nil
	})
}

// List returns every indexed file ordered by path.
func (l *SQLiteLibrary) List(ctx context.Context) ([]File, error) {
	query := `
		SELECT path, folder_name, size_bytes, modified_at, indexed_at
		FROM media
		ORDER BY path`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying media: %w", ErrLibraryUnavailable, err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var modifiedAt, indexedAt string
		if err := rows.Scan(&f.Path, &f.FolderName, &f.Size, &modifiedAt, &indexedAt); err != nil {
			return nil, fmt.Errorf("scanning media row: %w", err)
		}
		f.ModifiedAt = parseIndexTime(modifiedAt)
		f.IndexedAt = parseIndexTime(indexedAt)
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating media rows: %w", err)
	}
	return files, nil
}

// Count returns the number of indexed files.
func (l *SQLiteLibrary) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting media: %w", ErrLibraryUnavailable, err)
	}
	return n, nil
}

// Folders returns the distinct folder names in byte order.
func (l *SQLiteLibrary) Folders(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT DISTINCT folder_name FROM media ORDER BY folder_name")
	if err != nil {
		return nil, fmt.Errorf("%w: querying folders: %w", ErrLibraryUnavailable, err)
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning folder row: %w", err)
		}
		folders = append(folders, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folder rows: %w", err)
	}
	return folders, nil
}

// Prune deletes files last indexed before seenBefore.
func (l *SQLiteLibrary) Prune(ctx context.Context, seenBefore time.Time) (int64, error) {
	result, err := l.db.ExecContext(ctx, "DELETE FROM media WHERE indexed_at < ?", formatIndexTime(seenBefore))
	if err != nil {
		return 0, fmt.Errorf("pruning media: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func formatIndexTime(t time.Time) string {
	return t.UTC().Format(indexTimeFormat)
}

func parseIndexTime(s string) time.Time {
	t, err := time.Parse(indexTimeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
