package model

import "time"

// Comment belongs to exactly one article.
type Comment struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	ArticleID  ArticleID `json:"article_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CommentFields is what a user submits from the comment form.
type CommentFields struct {
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	ArticleID  ArticleID `json:"article_id"`
}

// IsZero reports whether the user typed nothing.
func (f CommentFields) IsZero() bool {
	return f.Content == "" && f.AuthorName == ""
}
