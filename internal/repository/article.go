package repository

import (
	"context"

	"conduit/internal/model"

	"go.uber.org/zap"
)

type ArticleRepository struct {
	api    ArticleAPI
	logger *zap.Logger
}

func NewArticleRepository(api ArticleAPI, logger *zap.Logger) *ArticleRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleRepository{api: api, logger: logger}
}

// List returns every article. Paging happens on the client.
func (r *ArticleRepository) List(ctx context.Context) ([]model.Article, error) {
	articles, err := r.api.ListArticles(ctx)
	if err != nil {
		err = normalize("list articles", err)
		logFailure(r.logger, "list articles", err)
		return nil, err
	}
	return articles, nil
}

// Get returns one article. A missing article fails with apperr.ErrNotFound.
func (r *ArticleRepository) Get(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	v := NewValidator()
	id = validateArticleID(v, id, "id")
	if !v.Valid() {
		return nil, r.fail("get article", v.ValidationError(), id)
	}

	article, err := r.api.GetArticle(ctx, id)
	if err != nil {
		return nil, r.fail("get article", err, id)
	}
	return article, nil
}

// Create validates the fields and posts them. The returned article carries the
// server-assigned id and timestamps.
func (r *ArticleRepository) Create(ctx context.Context, fields model.ArticleFields) (*model.Article, error) {
	v := NewValidator()
	validateArticleFields(v, fields)
	if !v.Valid() {
		return nil, r.fail("create article", v.ValidationError(), "")
	}

	article, err := r.api.CreateArticle(ctx, fields)
	if err != nil {
		return nil, r.fail("create article", err, "")
	}

	r.logger.Info("article created", zap.String("article_id", article.ID.String()))
	return article, nil
}

// Update overwrites title, description and body.
func (r *ArticleRepository) Update(ctx context.Context, id model.ArticleID, fields model.ArticleFields) (*model.Article, error) {
	v := NewValidator()
	id = validateArticleID(v, id, "id")
	validateArticleFields(v, fields)
	if !v.Valid() {
		return nil, r.fail("update article", v.ValidationError(), id)
	}

	article, err := r.api.UpdateArticle(ctx, id, fields)
	if err != nil {
		return nil, r.fail("update article", err, id)
	}

	r.logger.Info("article updated", zap.String("article_id", id.String()))
	return article, nil
}

// Delete removes the article. Deleting twice fails with apperr.ErrNotFound.
func (r *ArticleRepository) Delete(ctx context.Context, id model.ArticleID) error {
	v := NewValidator()
	id = validateArticleID(v, id, "id")
	if !v.Valid() {
		return r.fail("delete article", v.ValidationError(), id)
	}

	if err := r.api.DeleteArticle(ctx, id); err != nil {
		return r.fail("delete article", err, id)
	}

	r.logger.Info("article deleted", zap.String("article_id", id.String()))
	return nil
}

func (r *ArticleRepository) fail(op string, err error, id model.ArticleID) error {
	err = normalize(op, err)
	logFailure(r.logger, op, err, zap.String("article_id", id.String()))
	return err
}
