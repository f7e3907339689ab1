package view

import (
	"context"
	"fmt"
	"sync"

	"conduit/internal/apperr"
	"conduit/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Articles is the article repository as the views see it.
type Articles interface {
	List(ctx context.Context) ([]model.Article, error)
	Get(ctx context.Context, id model.ArticleID) (*model.Article, error)
	Create(ctx context.Context, fields model.ArticleFields) (*model.Article, error)
	Update(ctx context.Context, id model.ArticleID, fields model.ArticleFields) (*model.Article, error)
	Delete(ctx context.Context, id model.ArticleID) error
}

type Comments interface {
	List(ctx context.Context, articleID model.ArticleID) ([]model.Comment, error)
	Create(ctx context.Context, fields model.CommentFields) (*model.Comment, error)
	Delete(ctx context.Context, articleID model.ArticleID, commentID int64) error
}

type Tags interface {
	Popular(ctx context.Context) ([]string, error)
}

type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	LoadFailed
)

// HomeView is the article listing with the popular tags sidebar.
type HomeView struct {
	b        *Binding
	articles Articles
	tags     Tags

	mu      sync.Mutex
	state   LoadState
	all     []model.Article
	popular []string
	pageNum int
	tagsErr error
}

func NewHomeView(b *Binding, articles Articles, tags Tags) *HomeView {
	return &HomeView{b: b, articles: articles, tags: tags, pageNum: 1}
}

// Load fetches the listing and the popular tags at the same time. The listing
// is required; a tags failure is reported and leaves the sidebar empty.
func (v *HomeView) Load(ctx context.Context) error {
	v.setState(Loading)

	var articles []model.Article
	var tags []string
	var tagsErr error

	err := v.b.load(ctx, func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			articles, err = v.articles.List(ctx)
			return err
		})
		g.Go(func() error {
			tags, tagsErr = v.tags.Popular(ctx)
			return nil
		})
		return g.Wait()
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = LoadFailed
		return err
	}

	v.all = articles
	v.tagsErr = tagsErr
	if tagsErr != nil {
		v.b.logger.Warn("popular tags unavailable", zap.Error(tagsErr))
		v.b.notifier.Error("popular tags unavailable: %s", apperr.UserMessage(tagsErr))
		tags = []string{}
	}
	v.popular = tags
	v.state = Loaded
	return nil
}

func (v *HomeView) reloadArticles(ctx context.Context) error {
	articles, err := v.articles.List(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.all = articles
	v.mu.Unlock()
	return nil
}

func (v *HomeView) setState(s LoadState) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}

func (v *HomeView) State() LoadState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Articles returns the whole listing currently displayed.
func (v *HomeView) Articles() []model.Article {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Article(nil), v.all...)
}

func (v *HomeView) PopularTags() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.popular...)
}

// TagsError is the error from the last popular tags fetch, if any.
func (v *HomeView) TagsError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tagsErr
}

func (v *HomeView) SetPage(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pageNum = n
}

// Page returns the current page of the listing.
func (v *HomeView) Page() model.Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := model.Paginate(v.all, v.pageNum)
	v.pageNum = p.Number
	return p
}

// DeleteArticle asks for confirmation, deletes, and re-fetches the listing.
func (v *HomeView) DeleteArticle(ctx context.Context, id model.ArticleID) error {
	return v.b.mutate(ctx, mutation{
		key:     "article:delete:" + id.String(),
		confirm: fmt.Sprintf("Delete article %s? This cannot be undone.", id),
		run: func(ctx context.Context) error {
			return v.articles.Delete(ctx, id)
		},
		success: fmt.Sprintf("article %s deleted", id),
		failure: "could not delete article",
		refresh: v.reloadArticles,
	})
}
