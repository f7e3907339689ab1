// Package fakeapi is an in-memory stand-in for the Conduit API used by tests.
// It mirrors the real server's quirks: numeric ids, no cascade delete of comments,
// and 404 for anything addressed by an unknown id.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"conduit/internal/model"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Route names, also used as keys for Calls and FailNext.
const (
	RouteListArticles  = "listArticles"
	RouteGetArticle    = "getArticle"
	RouteCreateArticle = "createArticle"
	RouteUpdateArticle = "updateArticle"
	RouteDeleteArticle = "deleteArticle"
	RouteListComments  = "listComments"
	RouteCreateComment = "createComment"
	RouteDeleteComment = "deleteComment"
	RoutePopularTags   = "popularTags"
)

type Server struct {
	logger *zap.Logger
	router *mux.Router

	mu            sync.Mutex
	articles      map[model.ArticleID]model.Article
	comments      map[model.ArticleID][]model.Comment
	tags          []string
	nextArticleID int64
	nextCommentID int64
	calls         map[string]int
	failures      map[string]int
	delay         time.Duration
	lastComment   map[string]any
}

func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:   logger,
		router:   mux.NewRouter(),
		articles: make(map[model.ArticleID]model.Article),
		comments: make(map[model.ArticleID][]model.Comment),
		tags:     []string{},
		calls:    make(map[string]int),
		failures: make(map[string]int),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.intercept)

	api.HandleFunc("/articles", s.handleListArticles).Methods("GET").Name(RouteListArticles)
	api.HandleFunc("/articles", s.handleCreateArticle).Methods("POST").Name(RouteCreateArticle)
	api.HandleFunc("/articles/{id}", s.handleGetArticle).Methods("GET").Name(RouteGetArticle)
	api.HandleFunc("/articles/{id}", s.handleUpdateArticle).Methods("PUT").Name(RouteUpdateArticle)
	api.HandleFunc("/articles/{id}", s.handleDeleteArticle).Methods("DELETE").Name(RouteDeleteArticle)
	api.HandleFunc("/articles/{id}/comments", s.handleListComments).Methods("GET").Name(RouteListComments)
	api.HandleFunc("/articles/{id}/comments", s.handleCreateComment).Methods("POST").Name(RouteCreateComment)
	api.HandleFunc("/articles/{id}/comments/{commentID}", s.handleDeleteComment).Methods("DELETE").Name(RouteDeleteComment)
	api.HandleFunc("/tags/popular", s.handlePopularTags).Methods("GET").Name(RoutePopularTags)
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the fake on a local port. Callers close the returned server.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.router)
}

// intercept counts calls per route and applies injected failures and delays.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		s.mu.Lock()
		s.calls[name]++
		status, fail := s.failures[name]
		if fail {
			delete(s.failures, name)
		}
		delay := s.delay
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if fail {
			s.logger.Debug("injected failure", zap.String("route", name), zap.Int("status", status))
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Calls returns how many requests hit the named route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of requests across all routes.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// FailNext makes the next request to route answer with status.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// SetDelay holds every response for d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// LastCommentBody returns the decoded body of the last create comment request.
func (s *Server) LastCommentBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastComment
}

func (s *Server) SetPopularTags(tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append([]string{}, tags...)
}

// SeedArticle stores an article directly and returns it with id and timestamps set.
func (s *Server) SeedArticle(fields model.ArticleFields, tags ...string) model.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertArticle(fields, tags)
}

// SeedComment stores a comment directly.
func (s *Server) SeedComment(articleID model.ArticleID, content, author string) model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertComment(model.CommentFields{Content: content, AuthorName: author, ArticleID: articleID})
}

// SeedCommentWithID stores a comment with a fixed id.
func (s *Server) SeedCommentWithID(id int64, articleID model.ArticleID, content, author string) model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCommentID = id - 1
	return s.insertComment(model.CommentFields{Content: content, AuthorName: author, ArticleID: articleID})
}

// SeedArticleWithID stores an article under a fixed id.
func (s *Server) SeedArticleWithID(id model.ArticleID, fields model.ArticleFields) model.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	a := model.Article{
		ID:          id,
		Title:       fields.Title,
		Description: fields.Description,
		Body:        fields.Body,
		CreatedAt:   now,
		UpdatedAt:   now,
		TagList:     []string{},
	}
	s.articles[id] = a
	if n, err := strconv.ParseInt(id.String(), 10, 64); err == nil && n > s.nextArticleID {
		s.nextArticleID = n
	}
	return a
}

func (s *Server) insertArticle(fields model.ArticleFields, tags []string) model.Article {
	s.nextArticleID++
	now := time.Now().UTC()
	if tags == nil {
		tags = []string{}
	}
	a := model.Article{
		ID:          model.ArticleID(strconv.FormatInt(s.nextArticleID, 10)),
		Title:       fields.Title,
		Description: fields.Description,
		Body:        fields.Body,
		CreatedAt:   now,
		UpdatedAt:   now,
		TagList:     tags,
	}
	s.articles[a.ID] = a
	return a
}

func (s *Server) insertComment(fields model.CommentFields) model.Comment {
	s.nextCommentID++
	now := time.Now().UTC()
	c := model.Comment{
		ID:         s.nextCommentID,
		Content:    fields.Content,
		AuthorName: fields.AuthorName,
		ArticleID:  fields.ArticleID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.comments[fields.ArticleID] = append(s.comments[fields.ArticleID], c)
	return c
}

// OrphanedComments returns comments left behind for a deleted article.
func (s *Server) OrphanedComments(articleID model.ArticleID) []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[articleID]; ok {
		return nil
	}
	return append([]model.Comment{}, s.comments[articleID]...)
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	articles := make([]model.Article, 0, len(s.articles))
	for _, a := range s.articles {
		articles = append(articles, a)
	}
	s.mu.Unlock()

	sort.Slice(articles, func(i, j int) bool {
		return lessID(articles[i].ID, articles[j].ID)
	})
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id := model.ArticleID(mux.Vars(r)["id"])

	s.mu.Lock()
	a, ok := s.articles[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Couldn't find Article"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var fields model.ArticleFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if strings.TrimSpace(fields.Title) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": map[string][]string{"title": {"can't be blank"}},
		})
		return
	}

	s.mu.Lock()
	a := s.insertArticle(fields, nil)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id := model.ArticleID(mux.Vars(r)["id"])

	var fields model.ArticleFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}

	s.mu.Lock()
	a, ok := s.articles[id]
	if ok {
		a.Title = fields.Title
		a.Description = fields.Description
		a.Body = fields.Body
		a.UpdatedAt = time.Now().UTC()
		s.articles[id] = a
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Couldn't find Article"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := model.ArticleID(mux.Vars(r)["id"])

	s.mu.Lock()
	_, ok := s.articles[id]
	// Comments are left in place: the real server does not cascade.
	delete(s.articles, id)
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Couldn't find Article"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id := model.ArticleID(mux.Vars(r)["id"])

	s.mu.Lock()
	_, ok := s.articles[id]
	comments := append([]model.Comment{}, s.comments[id]...)
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Couldn't find Article"})
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id := model.ArticleID(mux.Vars(r)["id"])

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	content, _ := raw["content"].(string)
	author, _ := raw["author_name"].(string)

	s.mu.Lock()
	s.lastComment = raw
	_, ok := s.articles[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Couldn't find Article"})
		return
	}
	if content == "" || author == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": map[string][]string{"content": {"can't be blank"}},
		})
		return
	}

	s.mu.Lock()
	c := s.insertComment(model.CommentFields{Content: content, AuthorName: author, ArticleID: id})
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	articleID := model.ArticleID(vars["id"])
	commentID, err := strconv.ParseInt(vars["commentID"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid comment id"})
		return
	}

	s.mu.Lock()
	found := false
	comments := s.comments[articleID]
	for i, c := range comments {
		if c.ID == commentID {
			s.comments[articleID] = append(comments[:i:i], comments[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Couldn't find Comment"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePopularTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tags := append([]string{}, s.tags...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.PopularTags{PopularTags: tags})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// lessID orders numeric ids numerically and everything else lexically.
func lessID(a, b model.ArticleID) bool {
	na, errA := strconv.ParseInt(a.String(), 10, 64)
	nb, errB := strconv.ParseInt(b.String(), 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
