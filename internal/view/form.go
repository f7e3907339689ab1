package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"conduit/internal/model"

	"go.uber.org/zap"
)

const draftTimeout = 2 * time.Second

// Form holds uncommitted field values. Values reset only after a successful
// submit; after a failure they stay, and are saved as a draft when the binding
// has a DraftStore.
type Form[T any] struct {
	b         *Binding
	key       string
	toDraft   func(key string, v T) model.Draft
	fromDraft func(d model.Draft) T

	mu      sync.Mutex
	initial T
	values  T
}

func newForm[T any](b *Binding, key string, initial T, toDraft func(string, T) model.Draft, fromDraft func(model.Draft) T) *Form[T] {
	return &Form[T]{
		b:         b,
		key:       key,
		toDraft:   toDraft,
		fromDraft: fromDraft,
		initial:   initial,
		values:    initial,
	}
}

// NewArticleForm is the create/edit article form. id is empty for a new article.
func NewArticleForm(b *Binding, id model.ArticleID, initial model.ArticleFields) *Form[model.ArticleFields] {
	return newForm(b, model.ArticleDraftKey(id), initial,
		func(key string, v model.ArticleFields) model.Draft {
			return model.Draft{Key: key, Article: v, SavedAt: time.Now()}
		},
		func(d model.Draft) model.ArticleFields { return d.Article },
	)
}

// NewCommentForm is the comment form of one article.
func NewCommentForm(b *Binding, articleID model.ArticleID) *Form[model.CommentFields] {
	initial := model.CommentFields{ArticleID: articleID}
	return newForm(b, model.CommentDraftKey(articleID), initial,
		func(key string, v model.CommentFields) model.Draft {
			return model.Draft{Key: key, Comment: v, SavedAt: time.Now()}
		},
		func(d model.Draft) model.CommentFields {
			c := d.Comment
			c.ArticleID = articleID
			return c
		},
	)
}

func (f *Form[T]) Key() string {
	return f.key
}

func (f *Form[T]) Values() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

func (f *Form[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = v
}

// SetInitial replaces both the reset target and the current values.
func (f *Form[T]) SetInitial(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initial = v
	f.values = v
}

// Submitting reports whether a submit is in flight; the submit control should
// be disabled while it is.
func (f *Form[T]) Submitting() bool {
	return f.b.Action(f.key).State() == Submitting
}

// Resume loads a saved draft into the form. It reports whether one existed.
func (f *Form[T]) Resume(ctx context.Context) (bool, error) {
	if f.b.drafts == nil {
		return false, nil
	}
	d, found, err := f.b.drafts.GetDraft(ctx, f.key)
	if err != nil || !found {
		return false, err
	}
	f.Set(f.fromDraft(*d))
	return true, nil
}

// submit sends the current values through m.run.
func (f *Form[T]) submit(ctx context.Context, m mutation, send func(ctx context.Context, v T) error) error {
	values := f.Values()
	m.key = f.key
	m.run = func(ctx context.Context) error {
		return send(ctx, values)
	}

	err := f.b.mutate(ctx, m)
	switch {
	case errors.Is(err, ErrBusy):
		return err
	case err != nil:
		f.saveDraft(ctx, values)
		return err
	}

	f.mu.Lock()
	f.values = f.initial
	f.mu.Unlock()
	f.dropDraft(ctx)
	return nil
}

func (f *Form[T]) saveDraft(ctx context.Context, v T) {
	if f.b.drafts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), draftTimeout)
	defer cancel()
	if err := f.b.drafts.SaveDraft(ctx, f.toDraft(f.key, v)); err != nil {
		f.b.logger.Warn("could not save draft", zap.String("draft", f.key), zap.Error(err))
	}
}

func (f *Form[T]) dropDraft(ctx context.Context) {
	if f.b.drafts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), draftTimeout)
	defer cancel()
	if err := f.b.drafts.DeleteDraft(ctx, f.key); err != nil {
		f.b.logger.Warn("could not delete draft", zap.String("draft", f.key), zap.Error(err))
	}
}
