package view

import (
	"context"
	"fmt"
	"sync"

	"conduit/internal/model"

	"golang.org/x/sync/errgroup"
)

// CommentSection is what the comment thread renders: a heading and the entries,
// possibly none.
type CommentSection struct {
	Heading string
	Entries []model.Comment
}

// ArticleView is the detail page: one article, its comments, and the comment form.
type ArticleView struct {
	b        *Binding
	articles Articles
	comments Comments
	id       model.ArticleID
	form     *Form[model.CommentFields]

	mu      sync.Mutex
	state   LoadState
	article *model.Article
	thread  []model.Comment
	deleted bool
}

func NewArticleView(b *Binding, articles Articles, comments Comments, id model.ArticleID) *ArticleView {
	return &ArticleView{
		b:        b,
		articles: articles,
		comments: comments,
		id:       id,
		form:     NewCommentForm(b, id),
	}
}

// Load fetches the article and its comments concurrently.
func (v *ArticleView) Load(ctx context.Context) error {
	v.mu.Lock()
	v.state = Loading
	v.mu.Unlock()

	var article *model.Article
	var thread []model.Comment
	err := v.b.load(ctx, func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			article, err = v.articles.Get(ctx, v.id)
			return err
		})
		g.Go(func() error {
			var err error
			thread, err = v.comments.List(ctx, v.id)
			return err
		})
		return g.Wait()
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = LoadFailed
		return err
	}
	v.article = article
	v.thread = thread
	v.state = Loaded
	return nil
}

func (v *ArticleView) reloadComments(ctx context.Context) error {
	thread, err := v.comments.List(ctx, v.id)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.thread = thread
	v.mu.Unlock()
	return nil
}

func (v *ArticleView) State() LoadState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *ArticleView) Article() *model.Article {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.article == nil {
		return nil
	}
	a := *v.article
	return &a
}

func (v *ArticleView) Comments() []model.Comment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Comment(nil), v.thread...)
}

// Deleted reports whether the article was deleted from this view.
func (v *ArticleView) Deleted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deleted
}

func (v *ArticleView) CommentSection() CommentSection {
	v.mu.Lock()
	defer v.mu.Unlock()
	entries := append([]model.Comment{}, v.thread...)
	return CommentSection{
		Heading: fmt.Sprintf("Comments (%d)", len(entries)),
		Entries: entries,
	}
}

func (v *ArticleView) CommentForm() *Form[model.CommentFields] {
	return v.form
}

// AddComment submits the comment form and re-fetches the thread on success.
func (v *ArticleView) AddComment(ctx context.Context) error {
	return v.form.submit(ctx, mutation{
		success: "comment posted",
		failure: "could not post comment",
		refresh: v.reloadComments,
	}, func(ctx context.Context, fields model.CommentFields) error {
		_, err := v.comments.Create(ctx, fields)
		return err
	})
}

// DeleteComment asks for confirmation, deletes, and re-fetches the thread.
func (v *ArticleView) DeleteComment(ctx context.Context, commentID int64) error {
	return v.b.mutate(ctx, mutation{
		key:     fmt.Sprintf("comment:delete:%s:%d", v.id, commentID),
		confirm: fmt.Sprintf("Delete comment %d?", commentID),
		run: func(ctx context.Context) error {
			return v.comments.Delete(ctx, v.id, commentID)
		},
		success: fmt.Sprintf("comment %d deleted", commentID),
		failure: "could not delete comment",
		refresh: v.reloadComments,
	})
}

// DeleteArticle asks for confirmation and deletes the article shown. The view
// is cleared afterwards since there is nothing left to display.
func (v *ArticleView) DeleteArticle(ctx context.Context) error {
	return v.b.mutate(ctx, mutation{
		key:     "article:delete:" + v.id.String(),
		confirm: fmt.Sprintf("Delete article %s? This cannot be undone.", v.id),
		run: func(ctx context.Context) error {
			return v.articles.Delete(ctx, v.id)
		},
		success: fmt.Sprintf("article %s deleted", v.id),
		failure: "could not delete article",
		refresh: func(context.Context) error {
			v.mu.Lock()
			defer v.mu.Unlock()
			v.article = nil
			v.thread = nil
			v.deleted = true
			return nil
		},
	})
}
