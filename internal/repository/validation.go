package repository

import (
	"strings"
	"unicode/utf8"

	"conduit/internal/apperr"
	"conduit/internal/model"
)

const maxTitleLength = 255

type Validator struct {
	Errors map[string]string
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	if _, ok := v.Errors[field]; !ok {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *Validator) ValidationError() error {
	return &apperr.ValidationError{Fields: v.Errors}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validateArticleFields(v *Validator, f model.ArticleFields) {
	v.Check(!blank(f.Title), "title", "must be provided")
	v.Check(utf8.RuneCountInString(f.Title) <= maxTitleLength, "title", "must be at most 255 characters long")
}

func validateCommentFields(v *Validator, f model.CommentFields) {
	v.Check(!blank(f.Content), "content", "must be provided")
	v.Check(!blank(f.AuthorName), "author_name", "must be provided")
}

// validateArticleID canonicalizes id, recording a field error when it is unusable.
func validateArticleID(v *Validator, id model.ArticleID, field string) model.ArticleID {
	canonical, err := model.ParseArticleID(id.String())
	if err != nil {
		v.AddError(field, "must be a valid article id")
		return ""
	}
	return canonical
}

func validateCommentID(v *Validator, id int64) {
	v.Check(id > 0, "comment_id", "must be greater than zero")
}
