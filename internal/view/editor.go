package view

import (
	"context"
	"sync"

	"conduit/internal/model"
)

// ArticleEditor is the create and edit article screen.
type ArticleEditor struct {
	b        *Binding
	articles Articles
	id       model.ArticleID
	form     *Form[model.ArticleFields]

	mu    sync.Mutex
	saved *model.Article
}

// NewArticleEditor starts an empty editor for a new article.
func NewArticleEditor(b *Binding, articles Articles) *ArticleEditor {
	return &ArticleEditor{
		b:        b,
		articles: articles,
		form:     NewArticleForm(b, "", model.ArticleFields{}),
	}
}

// EditArticleEditor loads the article and prefills the form with it.
func EditArticleEditor(ctx context.Context, b *Binding, articles Articles, id model.ArticleID) (*ArticleEditor, error) {
	var article *model.Article
	err := b.load(ctx, func(ctx context.Context) error {
		var err error
		article, err = articles.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ArticleEditor{
		b:        b,
		articles: articles,
		id:       article.ID,
		form:     NewArticleForm(b, article.ID, article.Fields()),
		saved:    article,
	}, nil
}

func (e *ArticleEditor) Form() *Form[model.ArticleFields] {
	return e.form
}

// Editing reports whether the editor updates an existing article.
func (e *ArticleEditor) Editing() bool {
	return e.id != ""
}

// Saved returns the article as the server last reported it.
func (e *ArticleEditor) Saved() *model.Article {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saved == nil {
		return nil
	}
	a := *e.saved
	return &a
}

// Submit creates or updates the article from the form values, then re-fetches
// it so the editor shows what the server stored.
func (e *ArticleEditor) Submit(ctx context.Context) (*model.Article, error) {
	var result *model.Article

	m := mutation{
		success: "article published",
		failure: "could not publish article",
	}
	if e.Editing() {
		m.success = "article updated"
		m.failure = "could not update article"
	}

	m.refresh = func(ctx context.Context) error {
		if result == nil {
			return nil
		}
		fresh, err := e.articles.Get(ctx, result.ID)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.saved = fresh
		e.mu.Unlock()
		result = fresh
		if e.Editing() {
			e.form.SetInitial(fresh.Fields())
		}
		return nil
	}

	err := e.form.submit(ctx, m, func(ctx context.Context, fields model.ArticleFields) error {
		var err error
		if e.Editing() {
			result, err = e.articles.Update(ctx, e.id, fields)
		} else {
			result, err = e.articles.Create(ctx, fields)
		}
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.saved = result
		e.mu.Unlock()
		// The refresh may fail; the form must still show what the update stored.
		if e.Editing() {
			e.form.SetInitial(result.Fields())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
