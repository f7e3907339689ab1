package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"conduit/internal/model"
)

func articlePath(id model.ArticleID) string {
	return "/articles/" + url.PathEscape(id.String())
}

func commentsPath(articleID model.ArticleID) string {
	return articlePath(articleID) + "/comments"
}

// ListArticles fetches every article. The endpoint has no paging.
func (c *Client) ListArticles(ctx context.Context) ([]model.Article, error) {
	var articles []model.Article
	if err := c.do(ctx, "ListArticles", http.MethodGet, "/articles", nil, &articles); err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []model.Article{}
	}
	return articles, nil
}

// GetArticle fetches one article. A missing id is a 404 RequestError.
func (c *Client) GetArticle(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	var article model.Article
	if err := c.do(ctx, "GetArticle", http.MethodGet, articlePath(id), nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// CreateArticle posts the fields; the server assigns id and timestamps.
func (c *Client) CreateArticle(ctx context.Context, fields model.ArticleFields) (*model.Article, error) {
	var article model.Article
	if err := c.do(ctx, "CreateArticle", http.MethodPost, "/articles", fields, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// UpdateArticle replaces the editable fields of an article.
func (c *Client) UpdateArticle(ctx context.Context, id model.ArticleID, fields model.ArticleFields) (*model.Article, error) {
	var article model.Article
	if err := c.do(ctx, "UpdateArticle", http.MethodPut, articlePath(id), fields, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// DeleteArticle removes an article; its comments are left to the server.
func (c *Client) DeleteArticle(ctx context.Context, id model.ArticleID) error {
	return c.do(ctx, "DeleteArticle", http.MethodDelete, articlePath(id), nil, nil)
}

// ListComments fetches the comments of one article, never nil.
func (c *Client) ListComments(ctx context.Context, articleID model.ArticleID) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.do(ctx, "ListComments", http.MethodGet, commentsPath(articleID), nil, &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

// createCommentRequest is the body shape the server expects: the whole comment
// record with a zero id and blank timestamps.
type createCommentRequest struct {
	Content    string          `json:"content"`
	AuthorName string          `json:"author_name"`
	ArticleID  model.ArticleID `json:"article_id"`
	ID         int64           `json:"id"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// CreateComment posts a comment on fields.ArticleID.
func (c *Client) CreateComment(ctx context.Context, fields model.CommentFields) (*model.Comment, error) {
	body := createCommentRequest{
		Content:    fields.Content,
		AuthorName: fields.AuthorName,
		ArticleID:  fields.ArticleID,
	}

	var comment model.Comment
	if err := c.do(ctx, "CreateComment", http.MethodPost, commentsPath(fields.ArticleID), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes one comment of an article.
func (c *Client) DeleteComment(ctx context.Context, articleID model.ArticleID, commentID int64) error {
	path := fmt.Sprintf("%s/%d", commentsPath(articleID), commentID)
	return c.do(ctx, "DeleteComment", http.MethodDelete, path, nil, nil)
}

// PopularTags fetches the popular tag names, never nil.
func (c *Client) PopularTags(ctx context.Context) ([]string, error) {
	var payload model.PopularTags
	if err := c.do(ctx, "PopularTags", http.MethodGet, "/tags/popular", nil, &payload); err != nil {
		return nil, err
	}
	if payload.PopularTags == nil {
		payload.PopularTags = []string{}
	}
	return payload.PopularTags, nil
}
