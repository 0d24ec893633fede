// Package post provides blog post management.
package post

import "time"

// Post stores one published blog entry.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page stores one page of posts in reverse chronological order.
//
// Limit and Offset echo the effective values after defaulting and clamping so
// clients can resume paging from what the server actually used.
type Page struct {
	Posts  []Post `json:"posts"`
	Total  int64  `json:"total"`
	Limit  int64  `json:"limit"`
	Offset int64  `json:"offset"`
}
