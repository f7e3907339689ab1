package repository

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"conduit/internal/api"
	"conduit/internal/apperr"
	"conduit/internal/fakeapi"
	"conduit/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	fake     *fakeapi.Server
	articles *ArticleRepository
	comments *CommentRepository
	tags     *TagRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	fake := fakeapi.NewServer(zap.NewNop())
	srv := fake.Start()
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL, 5*time.Second, zap.NewNop())
	return fixture{
		fake:     fake,
		articles: NewArticleRepository(client, zap.NewNop()),
		comments: NewCommentRepository(client, zap.NewNop()),
		tags:     NewTagRepository(client, zap.NewNop()),
	}
}

func TestArticleRepository_CreateThenGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inputs := []model.ArticleFields{
		{Title: "T", Description: "D", Body: "B\nLine2"},
		{Title: "only a title"},
		{Title: "ユニコード", Description: "説明", Body: "本文\n二行目"},
	}

	for _, in := range inputs {
		created, err := f.articles.Create(ctx, in)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := f.articles.Get(ctx, created.ID)
		require.NoError(t, err)
		if diff := cmp.Diff(in, got.Fields()); diff != "" {
			t.Errorf("fields mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestArticleRepository_DeleteThenGetIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.fake.SeedArticle(model.ArticleFields{Title: "doomed"})

	require.NoError(t, f.articles.Delete(ctx, a.ID))

	_, err := f.articles.Get(ctx, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = f.articles.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestArticleRepository_UpdateTwiceSameVisibleFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.fake.SeedArticle(model.ArticleFields{Title: "old"})
	fields := model.ArticleFields{Title: "new", Description: "d", Body: "b"}

	first, err := f.articles.Update(ctx, a.ID, fields)
	require.NoError(t, err)
	second, err := f.articles.Update(ctx, a.ID, fields)
	require.NoError(t, err)

	assert.Equal(t, first.Fields(), second.Fields())
	assert.Equal(t, fields, second.Fields())
	assert.Equal(t, a.CreatedAt.Unix(), second.CreatedAt.Unix())
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestArticleRepository_UpdateMissingIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.articles.Update(context.Background(), "999", model.ArticleFields{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestArticleRepository_ValidationSendsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.articles.Create(ctx, model.ArticleFields{Title: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.articles.Create(ctx, model.ArticleFields{Title: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.articles.Get(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = f.articles.Delete(ctx, "7/comments")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Equal(t, 0, f.fake.TotalCalls())
}

func TestArticleRepository_CoercesWhitespaceIDs(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})

	got, err := f.articles.Get(context.Background(), " 7 ")
	require.NoError(t, err)
	assert.Equal(t, model.ArticleID("7"), got.ID)
}

func TestCommentRepository_CreateRejectsBlankFields(t *testing.T) {
	f := newFixture(t)
	a := f.fake.SeedArticle(model.ArticleFields{Title: "a"})

	tests := []struct {
		name   string
		fields model.CommentFields
		field  string
	}{
		{name: "empty content", fields: model.CommentFields{AuthorName: "jo", ArticleID: a.ID}, field: "content"},
		{name: "blank content", fields: model.CommentFields{Content: "  \n", AuthorName: "jo", ArticleID: a.ID}, field: "content"},
		{name: "empty author", fields: model.CommentFields{Content: "hi", ArticleID: a.ID}, field: "author_name"},
		{name: "missing article", fields: model.CommentFields{Content: "hi", AuthorName: "jo"}, field: "article_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.comments.Create(context.Background(), tt.fields)
			require.ErrorIs(t, err, apperr.ErrValidation)

			var valErr *apperr.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields, tt.field)
		})
	}

	assert.Equal(t, 0, f.fake.Calls(fakeapi.RouteCreateComment))
}

func TestCommentRepository_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})

	c, err := f.comments.Create(ctx, model.CommentFields{Content: " hello ", AuthorName: "jotaro", ArticleID: "7"})
	require.NoError(t, err)
	assert.Equal(t, "hello", c.Content)
	assert.Equal(t, a.ID, c.ArticleID)

	comments, err := f.comments.List(ctx, "7")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, c.ID, comments[0].ID)
}

func TestCommentRepository_CreateOnZeroPaddedID(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedArticleWithID("007", model.ArticleFields{Title: "bond"})

	c, err := f.comments.Create(context.Background(), model.CommentFields{Content: "shaken", AuthorName: "q", ArticleID: "007"})
	require.NoError(t, err)
	assert.Equal(t, model.ArticleID("007"), c.ArticleID)
	assert.Equal(t, 1, f.fake.Calls(fakeapi.RouteCreateComment))
	assert.Equal(t, "007", f.fake.LastCommentBody()["article_id"])
}

func TestCommentRepository_ListEmpty(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})

	comments, err := f.comments.List(context.Background(), "7")
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

func TestCommentRepository_ListForDeletedArticleIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.fake.SeedArticle(model.ArticleFields{Title: "a"})
	f.fake.SeedComment(a.ID, "orphan", "jo")

	require.NoError(t, f.articles.Delete(ctx, a.ID))
	require.Len(t, f.fake.OrphanedComments(a.ID), 1)

	comments, err := f.comments.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCommentRepository_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})
	f.fake.SeedCommentWithID(42, "7", "bye", "dio")

	require.NoError(t, f.comments.Delete(ctx, "7", 42))
	assert.ErrorIs(t, f.comments.Delete(ctx, "7", 42), apperr.ErrNotFound)

	assert.ErrorIs(t, f.comments.Delete(ctx, "7", 0), apperr.ErrValidation)
	assert.Equal(t, 2, f.fake.Calls(fakeapi.RouteDeleteComment))
}

func TestTagRepository_Popular(t *testing.T) {
	f := newFixture(t)
	f.fake.SetPopularTags("go")

	tags, err := f.tags.Popular(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tags)

	f.fake.FailNext(fakeapi.RoutePopularTags, http.StatusServiceUnavailable)
	_, err = f.tags.Popular(context.Background())
	assert.ErrorIs(t, err, apperr.ErrRequestFailed)
	assert.Equal(t, http.StatusServiceUnavailable, apperr.Status(err))
}

type brokenAPI struct{}

func (brokenAPI) PopularTags(ctx context.Context) ([]string, error) {
	return nil, errors.New("dial tcp: connection refused")
}

type unencodableAPI struct{}

func (unencodableAPI) PopularTags(ctx context.Context) ([]string, error) {
	return nil, &apperr.EncodeError{Op: "PopularTags", Err: errors.New("json: unsupported value")}
}

func TestNormalize_EncodeErrorsStayLocal(t *testing.T) {
	tags := NewTagRepository(unencodableAPI{}, zap.NewNop())

	_, err := tags.Popular(context.Background())
	assert.ErrorIs(t, err, apperr.ErrEncoding)
	assert.NotErrorIs(t, err, apperr.ErrNetworkUnavailable)
	assert.Equal(t, "the request could not be built", apperr.UserMessage(err))
}

func TestNormalize_UnknownErrorsBecomeNetworkUnavailable(t *testing.T) {
	tags := NewTagRepository(brokenAPI{}, zap.NewNop())

	_, err := tags.Popular(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
	assert.Contains(t, err.Error(), "popular tags")
}
