// Package sqlite implements blog persistence over a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/inkstream/inkstream/internal/blog/auth"
	"github.com/inkstream/inkstream/internal/blog/post"
	"github.com/inkstream/inkstream/internal/blog/storage"
	"github.com/inkstream/inkstream/internal/blog/storage/sqlite/migrations"
	"github.com/inkstream/inkstream/internal/blog/user"
	"github.com/inkstream/inkstream/internal/platform/storage/sqlitemigrate"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// maxOpenConns bounds concurrent SQLite connections; writes serialize on the
// file anyway, so a small pool keeps contention visible as queueing instead of
// SQLITE_BUSY churn.
const maxOpenConns = 5

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements blog persistence over SQLite.
//
// A single SQLite file backs accounts and posts so both stores share the same
// transaction and visibility boundaries.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a blog SQLite store and applies bundled migrations.
//
// This keeps startup and schema evolution in one place, instead of requiring
// callers to coordinate migrations independently.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}

	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// runMigrations applies embedded DDL snapshots for known schema versions.
func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

// CreateUser persists a new account and returns it with its assigned id.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (username, email, password_hash, created_at)
VALUES (?, ?, ?, ?)
`, username, email, passwordHash, toMillis(now))
	if err != nil {
		if isConstraintError(err) {
			return user.User{}, storage.ErrAlreadyExists
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return user.User{}, fmt.Errorf("read user id: %w", err)
	}

	return user.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// GetUserByUsername returns the account registered under the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, created_at
FROM users
WHERE username = ?
`, username)

	var found user.User
	var createdAt int64
	if err := row.Scan(&found.ID, &found.Username, &found.Email, &found.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	found.CreatedAt = fromMillis(createdAt)
	return found, nil
}

// CreatePost persists a new post and returns it with its assigned id.
func (s *Store) CreatePost(ctx context.Context, title, content string, authorID int64) (post.Post, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO posts (title, content, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`, title, content, authorID, toMillis(now), toMillis(now))
	if err != nil {
		return post.Post{}, fmt.Errorf("insert post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return post.Post{}, fmt.Errorf("read post id: %w", err)
	}

	return post.Post{
		ID:        id,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetPost returns a single post by id.
func (s *Store) GetPost(ctx context.Context, id int64) (post.Post, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, title, content, author_id, created_at, updated_at
FROM posts
WHERE id = ?
`, id)

	found, err := scanPost(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return post.Post{}, storage.ErrNotFound
		}
		return post.Post{}, fmt.Errorf("select post: %w", err)
	}
	return found, nil
}

// UpdatePost replaces the title and content of a post owned by the author.
//
// The write is scoped to both id and author so a post that changed hands or
// vanished since the caller's ownership check reports as missing.
func (s *Store) UpdatePost(ctx context.Context, id int64, title, content string, authorID int64) (post.Post, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE posts
SET title = ?, content = ?, updated_at = ?
WHERE id = ? AND author_id = ?
`, title, content, toMillis(now), id, authorID)
	if err != nil {
		return post.Post{}, fmt.Errorf("update post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return post.Post{}, fmt.Errorf("read update result: %w", err)
	}
	if affected == 0 {
		return post.Post{}, storage.ErrNotFound
	}

	return s.GetPost(ctx, id)
}

// DeletePost removes a post owned by the author.
func (s *Store) DeletePost(ctx context.Context, id, authorID int64) error {
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM posts
WHERE id = ? AND author_id = ?
`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListPosts returns posts in reverse chronological order.
//
// The id tiebreak keeps paging stable when posts share a creation timestamp.
func (s *Store) ListPosts(ctx context.Context, limit, offset int64) ([]post.Post, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, title, content, author_id, created_at, updated_at
FROM posts
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	defer rows.Close()

	var posts []post.Post
	for rows.Next() {
		scanned, err := scanPost(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, scanned)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}
	return posts, nil
}

// CountPosts returns the total number of stored posts.
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var total int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

// postScanner abstracts row.Scan and rows.Scan for shared column mapping.
type postScanner func(dest ...any) error

func scanPost(scan postScanner) (post.Post, error) {
	var scanned post.Post
	var createdAt int64
	var updatedAt int64
	if err := scan(&scanned.ID, &scanned.Title, &scanned.Content, &scanned.AuthorID, &createdAt, &updatedAt); err != nil {
		return post.Post{}, err
	}
	scanned.CreatedAt = fromMillis(createdAt)
	scanned.UpdatedAt = fromMillis(updatedAt)
	return scanned, nil
}

// isConstraintError reports whether err is a SQLite uniqueness violation.
func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

var _ auth.UserStore = (*Store)(nil)
var _ post.Store = (*Store)(nil)
