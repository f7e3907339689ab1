package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"conduit/internal/fakeapi"
	"conduit/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cli struct {
	t    *testing.T
	fake *fakeapi.Server
	url  string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	fake := fakeapi.NewServer(zap.NewNop())
	srv := fake.Start()
	t.Cleanup(srv.Close)
	return &cli{t: t, fake: fake, url: srv.URL}
}

type result struct {
	stdout string
	stderr string
	err    error
}

func (c *cli) run(stdin string, args ...string) result {
	c.t.Helper()
	var stdout, stderr bytes.Buffer

	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(append([]string{"--api-url", c.url, "--color", "never"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestCLI_DeclinedCommentDelete(t *testing.T) {
	c := newCLI(t)
	c.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})
	c.fake.SeedCommentWithID(42, "7", "still here", "jotaro")

	res := c.run("n\n", "comment", "delete", "7", "42")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Delete comment 42? [y/N]: ")
	assert.Contains(t, res.stdout, "cancelled")
	assert.Equal(t, 0, c.fake.Calls(fakeapi.RouteDeleteComment))

	res = c.run("", "comment", "list", "7", "--json")
	require.NoError(t, res.err)
	var comments []model.Comment
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, int64(42), comments[0].ID)
}

func TestCLI_ConfirmedCommentDelete(t *testing.T) {
	c := newCLI(t)
	c.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})
	c.fake.SeedCommentWithID(42, "7", "bye", "dio")

	res := c.run("yes\n", "comment", "delete", "7", "42")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[OK] comment 42 deleted")
	assert.Equal(t, 1, c.fake.Calls(fakeapi.RouteDeleteComment))
}

func TestCLI_EmptyCommentList(t *testing.T) {
	c := newCLI(t)
	c.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})

	res := c.run("", "comment", "list", "7")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Comments (0)")
	assert.Empty(t, res.stderr)
}

func TestCLI_CreateAndShowArticle(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "article", "create", "--title", "T", "--description", "D", "--body", "B\nLine2")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[OK] article published")
	require.Equal(t, 1, c.fake.Calls(fakeapi.RouteCreateArticle))

	res = c.run("", "article", "list", "--json")
	require.NoError(t, res.err)
	var page model.Page
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &page))
	require.Len(t, page.Articles, 1)
	id := page.Articles[0].ID

	res = c.run("", "article", "show", id.String(), "--raw")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "T\n\nD\n\nB\nLine2\n"), res.stdout)
	assert.Contains(t, res.stdout, "Comments (0)")
}

func TestCLI_EditKeepsUnsetFields(t *testing.T) {
	c := newCLI(t)
	a := c.fake.SeedArticle(model.ArticleFields{Title: "old", Description: "keep", Body: "body"})

	res := c.run("", "article", "edit", a.ID.String(), "--title", "new")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[OK] article updated")

	res = c.run("", "article", "show", a.ID.String(), "--json")
	require.NoError(t, res.err)
	var shown struct {
		Article model.Article `json:"article"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &shown))
	assert.Equal(t, model.ArticleFields{Title: "new", Description: "keep", Body: "body"}, shown.Article.Fields())
}

func TestCLI_InvalidCommentSendsNothing(t *testing.T) {
	c := newCLI(t)
	c.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})

	res := c.run("", "comment", "add", "7", "--author", "jotaro")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "[ERROR] could not post comment: content must be provided")
	assert.Equal(t, 0, c.fake.Calls(fakeapi.RouteCreateComment))
}

func TestCLI_DeleteMissingArticle(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "article", "delete", "99", "--yes")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "could not delete article: it no longer exists")
}

func TestCLI_ShowMissingArticle(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "article", "show", "99")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "[ERROR] could not load article 99: it no longer exists")
	assert.Empty(t, res.stdout)
}

func TestCLI_HomeJSON(t *testing.T) {
	c := newCLI(t)
	for i := 0; i < 11; i++ {
		c.fake.SeedArticle(model.ArticleFields{Title: fmt.Sprintf("a%d", i)})
	}
	c.fake.SetPopularTags("go")

	res := c.run("", "home", "--page", "2", "--json")
	require.NoError(t, res.err)

	var got homeJSON
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, 2, got.Page.Number)
	assert.Equal(t, 2, got.Page.TotalPages)
	assert.Len(t, got.Page.Articles, 1)
	assert.Equal(t, []string{"go"}, got.PopularTags)
}

func TestCLI_MissingBaseURL(t *testing.T) {
	a := &app{}
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs([]string{"tags"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url is required")
}

func TestCLI_LogLevelFlagIsValidated(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "--log-level", "loud", "tags")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid log level: loud")

	res = c.run("", "--log-level", "debug", "tags")
	require.NoError(t, res.err)
}

func TestCLI_ImportNeedsRedis(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "import", "add", "https://example.com")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "redis is not configured")
}

func TestCLI_ImportEndToEnd(t *testing.T) {
	c := newCLI(t)
	mr := miniredis.RunT(t)

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Imported Page</title></head><body><article>
<p>This page becomes an article. It has one paragraph that is long enough for the
readability extractor to consider it the main content of the document.</p>
</article></body></html>`)
	}))
	defer page.Close()

	res := c.run("", "--redis", mr.Addr(), "import", "add", page.URL+"/post")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[OK] queued")

	res = c.run("", "--redis", mr.Addr(), "import", "run", "--once")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "processed 1 imports")

	res = c.run("", "--redis", mr.Addr(), "import", "status", "--json")
	require.NoError(t, res.err)
	var jobs []model.ImportJob
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &jobs))
	require.Len(t, jobs, 1)
	require.Equal(t, model.ImportCreated, jobs[0].Status, jobs[0].ErrorMessage)

	res = c.run("", "article", "show", jobs[0].ArticleID.String(), "--json")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Imported Page")
}

func TestCLI_FailedCommentResumes(t *testing.T) {
	c := newCLI(t)
	mr := miniredis.RunT(t)
	c.fake.SeedArticleWithID("7", model.ArticleFields{Title: "seven"})
	c.fake.FailNext(fakeapi.RouteCreateComment, http.StatusServiceUnavailable)

	res := c.run("", "--redis", mr.Addr(), "comment", "add", "7", "--author", "bruno", "--content", "retry me")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "retry with --resume")
	assert.True(t, mr.Exists("draft:comment:7"))

	res = c.run("", "--redis", mr.Addr(), "comment", "add", "7", "--resume")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[OK] comment posted")
	assert.False(t, mr.Exists("draft:comment:7"))

	body := c.fake.LastCommentBody()
	assert.Equal(t, "retry me", body["content"])
	assert.Equal(t, "bruno", body["author_name"])
}
