package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyArticleID   = errors.New("article id is empty")
	ErrInvalidArticleID = errors.New("article id contains path characters")
)

// ArticleID is the canonical article identifier. The API is not consistent about
// whether it sends ids as strings or numbers, so both decode to the same value.
type ArticleID string

// ParseArticleID trims and validates a raw identifier coming from a user or a URL.
func ParseArticleID(raw string) (ArticleID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyArticleID
	}
	if strings.ContainsAny(id, "/?#") {
		return "", fmt.Errorf("%w: %q", ErrInvalidArticleID, id)
	}
	return ArticleID(id), nil
}

func (id ArticleID) String() string {
	return string(id)
}

// Numeric reports whether the id is a canonical integer: it survives a round
// trip through strconv unchanged, so "7" is numeric and "007" is not.
func (id ArticleID) Numeric() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

func (id ArticleID) MarshalJSON() ([]byte, error) {
	if id.Numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ArticleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ArticleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("article id: %w", err)
	}
	*id = ArticleID(n.String())
	return nil
}

// Article is a published article as returned by the API.
type Article struct {
	ID          ArticleID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	TagList     []string  `json:"tag_list"`
	ImageBlobID string    `json:"image_blob_id"`
}

// Fields returns the mutable part of the article.
func (a Article) Fields() ArticleFields {
	return ArticleFields{
		Title:       a.Title,
		Description: a.Description,
		Body:        a.Body,
	}
}

// Paragraphs splits the body on newlines, dropping blank lines.
func (a Article) Paragraphs() []string {
	var out []string
	for _, line := range strings.Split(a.Body, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// ArticleFields is the request body for create and update.
type ArticleFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
}

// IsZero reports whether no field has been filled in.
func (f ArticleFields) IsZero() bool {
	return f == ArticleFields{}
}

// Merge overlays the non-empty fields of patch on f.
func (f ArticleFields) Merge(patch ArticleFields) ArticleFields {
	if patch.Title != "" {
		f.Title = patch.Title
	}
	if patch.Description != "" {
		f.Description = patch.Description
	}
	if patch.Body != "" {
		f.Body = patch.Body
	}
	return f
}

// PopularTags is the payload of the popular tags endpoint.
type PopularTags struct {
	PopularTags []string `json:"popular_tags"`
}
