package repository

import (
	"context"
	"errors"
	"strings"

	"conduit/internal/apperr"
	"conduit/internal/model"

	"go.uber.org/zap"
)

type CommentRepository struct {
	api    CommentAPI
	logger *zap.Logger
}

func NewCommentRepository(api CommentAPI, logger *zap.Logger) *CommentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentRepository{api: api, logger: logger}
}

// List returns the comments of an article. The server does not cascade article
// deletes, so a 404 here is reported as an empty thread.
func (r *CommentRepository) List(ctx context.Context, articleID model.ArticleID) ([]model.Comment, error) {
	v := NewValidator()
	articleID = validateArticleID(v, articleID, "article_id")
	if !v.Valid() {
		return nil, r.fail("list comments", v.ValidationError(), articleID, 0)
	}

	comments, err := r.api.ListComments(ctx, articleID)
	if errors.Is(err, apperr.ErrNotFound) {
		r.logger.Info("comments requested for missing article", zap.String("article_id", articleID.String()))
		return []model.Comment{}, nil
	}
	if err != nil {
		return nil, r.fail("list comments", err, articleID, 0)
	}
	return comments, nil
}

// Create rejects blank content or author locally; nothing is sent in that case.
func (r *CommentRepository) Create(ctx context.Context, fields model.CommentFields) (*model.Comment, error) {
	v := NewValidator()
	validateCommentFields(v, fields)
	fields.ArticleID = validateArticleID(v, fields.ArticleID, "article_id")
	if !v.Valid() {
		return nil, r.fail("create comment", v.ValidationError(), fields.ArticleID, 0)
	}

	fields.Content = strings.TrimSpace(fields.Content)
	fields.AuthorName = strings.TrimSpace(fields.AuthorName)

	comment, err := r.api.CreateComment(ctx, fields)
	if err != nil {
		return nil, r.fail("create comment", err, fields.ArticleID, 0)
	}

	r.logger.Info("comment created",
		zap.String("article_id", fields.ArticleID.String()),
		zap.Int64("comment_id", comment.ID))
	return comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, articleID model.ArticleID, commentID int64) error {
	v := NewValidator()
	articleID = validateArticleID(v, articleID, "article_id")
	validateCommentID(v, commentID)
	if !v.Valid() {
		return r.fail("delete comment", v.ValidationError(), articleID, commentID)
	}

	if err := r.api.DeleteComment(ctx, articleID, commentID); err != nil {
		return r.fail("delete comment", err, articleID, commentID)
	}

	r.logger.Info("comment deleted",
		zap.String("article_id", articleID.String()),
		zap.Int64("comment_id", commentID))
	return nil
}

func (r *CommentRepository) fail(op string, err error, articleID model.ArticleID, commentID int64) error {
	err = normalize(op, err)
	logFailure(r.logger, op, err,
		zap.String("article_id", articleID.String()),
		zap.Int64("comment_id", commentID))
	return err
}
