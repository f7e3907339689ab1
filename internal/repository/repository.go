// Package repository sits between the raw API client and the views. It checks
// pre-conditions before any request is sent, canonicalizes article ids, and
// returns only errors from the apperr taxonomy.
package repository

import (
	"context"
	"errors"
	"fmt"

	"conduit/internal/apperr"
	"conduit/internal/model"

	"go.uber.org/zap"
)

type ArticleAPI interface {
	ListArticles(ctx context.Context) ([]model.Article, error)
	GetArticle(ctx context.Context, id model.ArticleID) (*model.Article, error)
	CreateArticle(ctx context.Context, fields model.ArticleFields) (*model.Article, error)
	UpdateArticle(ctx context.Context, id model.ArticleID, fields model.ArticleFields) (*model.Article, error)
	DeleteArticle(ctx context.Context, id model.ArticleID) error
}

type CommentAPI interface {
	ListComments(ctx context.Context, articleID model.ArticleID) ([]model.Comment, error)
	CreateComment(ctx context.Context, fields model.CommentFields) (*model.Comment, error)
	DeleteComment(ctx context.Context, articleID model.ArticleID, commentID int64) error
}

type TagAPI interface {
	PopularTags(ctx context.Context) ([]string, error)
}

// normalize maps err onto the taxonomy and prefixes it with op.
func normalize(op string, err error) error {
	var valErr *apperr.ValidationError
	var reqErr *apperr.RequestError
	var netErr *apperr.NetworkError
	var encErr *apperr.EncodeError
	if errors.As(err, &valErr) || errors.As(err, &reqErr) || errors.As(err, &netErr) || errors.As(err, &encErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	// Anything else means the request never made it onto the wire.
	return fmt.Errorf("%s: %w", op, &apperr.NetworkError{Op: op, Err: err})
}

func logFailure(logger *zap.Logger, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if errors.Is(err, apperr.ErrValidation) {
		logger.Debug("rejected before request", fields...)
		return
	}
	logger.Warn("repository call failed", fields...)
}
