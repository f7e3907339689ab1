package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"conduit/internal/apperr"
	"conduit/internal/model"
	"conduit/internal/store"

	"github.com/go-shiori/go-readability"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	scrapeTimeout = 30 * time.Second
	popWait       = time.Second
	maxTitle      = 255
)

// Scraper downloads a page and extracts the readable article from it.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (*readability.Article, error)
}

// HTTPScraper fetches pages over HTTP and parses them with readability.
type HTTPScraper struct {
	Client *http.Client
}

func (s *HTTPScraper) Scrape(ctx context.Context, pageURL string) (*readability.Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: scrapeTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: %s", pageURL, resp.Status)
	}

	art, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return nil, err
	}
	return &art, nil
}

// ArticleCreator is where imported articles end up.
type ArticleCreator interface {
	Create(ctx context.Context, fields model.ArticleFields) (*model.Article, error)
}

// Worker turns queued import jobs into articles.
type Worker struct {
	jobs     store.Jobs
	articles ArticleCreator
	limiter  *rate.Limiter
	logger   *zap.Logger
	scraper  Scraper
}

// NewWorker creates a worker that creates at most perSecond articles per second.
// perSecond <= 0 disables the limit.
func NewWorker(jobs store.Jobs, articles ArticleCreator, perSecond float64, logger *zap.Logger) *Worker {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Worker{
		jobs:     jobs,
		articles: articles,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
		scraper:  &HTTPScraper{},
	}
}

// Start runs the worker loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("import worker started, waiting for jobs")

	for {
		id, err := w.jobs.PopJob(ctx, popWait)
		if ctx.Err() != nil {
			w.logger.Info("import worker shutting down")
			return
		}
		if errors.Is(err, store.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			w.logger.Error("queue error", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		w.processJob(ctx, id)
	}
}

// Drain processes queued jobs until the queue is empty and returns how many it
// handled.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		id, err := w.jobs.PopJob(ctx, popWait)
		if errors.Is(err, store.ErrQueueEmpty) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		w.processJob(ctx, id)
		n++
	}
}

func (w *Worker) processJob(ctx context.Context, id uuid.UUID) {
	logger := w.logger.With(zap.String("job_id", id.String()))

	job, err := w.jobs.GetJob(ctx, id)
	if err != nil {
		logger.Error("import job not found", zap.Error(err))
		return
	}
	logger = logger.With(zap.String("url", job.URL))
	logger.Info("import started")

	page, err := w.scraper.Scrape(ctx, job.URL)
	if err != nil {
		logger.Warn("scraping failed", zap.Error(err))
		w.finish(ctx, job, nil, err.Error())
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		logger.Warn("import interrupted", zap.Error(err))
		w.finish(ctx, job, nil, err.Error())
		return
	}

	article, err := w.articles.Create(ctx, articleFields(job.URL, page))
	if err != nil {
		logger.Warn("article creation failed", zap.Error(err))
		w.finish(ctx, job, nil, apperr.UserMessage(err))
		return
	}

	w.finish(ctx, job, article, "")
	logger.Info("import complete", zap.String("article_id", article.ID.String()))
}

func articleFields(pageURL string, page *readability.Article) model.ArticleFields {
	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = pageURL
	}
	if utf8.RuneCountInString(title) > maxTitle {
		title = string([]rune(title)[:maxTitle])
	}
	return model.ArticleFields{
		Title:       title,
		Description: strings.TrimSpace(page.Excerpt),
		Body:        strings.TrimSpace(page.TextContent),
	}
}

func (w *Worker) finish(ctx context.Context, job *model.ImportJob, article *model.Article, msg string) {
	now := time.Now()
	job.FinishedAt = &now
	if article != nil {
		job.Status = model.ImportCreated
		job.ArticleID = article.ID
		job.ErrorMessage = ""
	} else {
		job.Status = model.ImportFailed
		job.ErrorMessage = msg
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := w.jobs.SaveJob(saveCtx, job); err != nil {
		w.logger.Error("failed to save import job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}
