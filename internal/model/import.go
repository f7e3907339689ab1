package model

import (
	"time"

	"github.com/google/uuid"
)

type ImportStatus string

const (
	ImportPending ImportStatus = "pending"
	ImportCreated ImportStatus = "created"
	ImportFailed  ImportStatus = "failed"
)

// ImportJob turns a web page into a new article.
type ImportJob struct {
	ID           uuid.UUID    `json:"id"`
	URL          string       `json:"url"`
	Status       ImportStatus `json:"status"`
	ArticleID    ArticleID    `json:"article_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// NewImportJob creates a pending job for the given URL.
func NewImportJob(rawURL string) ImportJob {
	return ImportJob{
		ID:        uuid.New(),
		URL:       rawURL,
		Status:    ImportPending,
		CreatedAt: time.Now(),
	}
}

// Draft holds form values that were not accepted by the API yet.
type Draft struct {
	Key     string        `json:"key"`
	Article ArticleFields `json:"article"`
	Comment CommentFields `json:"comment"`
	SavedAt time.Time     `json:"saved_at"`
}

func ArticleDraftKey(id ArticleID) string {
	if id == "" {
		return "article:new"
	}
	return "article:" + id.String()
}

func CommentDraftKey(articleID ArticleID) string {
	return "comment:" + articleID.String()
}
