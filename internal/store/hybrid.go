package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"conduit/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	queueKey    = "queue:import"
	recentKey   = "list:imports"
	recentLimit = 50

	// Drafts nobody resumes expire after a week.
	draftTTL = 7 * 24 * time.Hour
)

// HybridStore keeps small records and the import queue in Redis and large
// article bodies in Badger.
type HybridStore struct {
	rdb *redis.Client
	db  *badger.DB
}

// NewHybridStore connects to Redis and opens Badger.
// Pass badgerPath="" to run in Redis-only mode; draft bodies then live in Redis too.
func NewHybridStore(ctx context.Context, redisAddr, badgerPath string) (*HybridStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var db *badger.DB
	if badgerPath != "" {
		opts := badger.DefaultOptions(badgerPath)
		opts.Logger = nil
		var err error
		db, err = badger.Open(opts)
		if err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to open badger: %w", err)
		}
	}

	return &HybridStore{rdb: rdb, db: db}, nil
}

// Redis exposes the client for the gesture lock.
func (s *HybridStore) Redis() *redis.Client {
	return s.rdb
}

func (s *HybridStore) Close() error {
	var errs []error
	if s.rdb != nil {
		errs = append(errs, s.rdb.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

func draftKey(key string) string {
	return "draft:" + key
}

// SaveDraft writes the draft metadata to Redis and, when Badger is open, the
// article body to Badger.
func (s *HybridStore) SaveDraft(ctx context.Context, d model.Draft) error {
	if d.Key == "" {
		return errors.New("draft key is empty")
	}
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now()
	}

	meta := d
	body := d.Article.Body
	if s.db != nil {
		meta.Article.Body = ""
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, draftKey(d.Key), data, draftTTL).Err(); err != nil {
		return fmt.Errorf("save draft %s: %w", d.Key, err)
	}

	if s.db == nil {
		return nil
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if body == "" {
			err := txn.Delete([]byte(draftKey(d.Key)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(draftKey(d.Key)), []byte(body)).WithTTL(draftTTL))
	})
	if err != nil {
		return fmt.Errorf("save draft body %s: %w", d.Key, err)
	}
	return nil
}

// GetDraft reports found=false when no draft is stored under key.
func (s *HybridStore) GetDraft(ctx context.Context, key string) (*model.Draft, bool, error) {
	val, err := s.rdb.Get(ctx, draftKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("get draft %s: %w", key, err)
	}

	var d model.Draft
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, false, err
	}

	if s.db != nil {
		err = s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(draftKey(key)))
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				d.Article.Body = string(val)
				return nil
			})
		})
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, fmt.Errorf("get draft body %s: %w", key, err)
		}
	}

	return &d, true, nil
}

func (s *HybridStore) DeleteDraft(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, draftKey(key)).Err(); err != nil {
		return fmt.Errorf("delete draft %s: %w", key, err)
	}
	if s.db == nil {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(draftKey(key)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func jobKey(id uuid.UUID) string {
	return "import:" + id.String()
}

// EnqueueJob saves a pending job and pushes it onto the queue.
func (s *HybridStore) EnqueueJob(ctx context.Context, job *model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(job.ID), data, 0)
	pipe.LPush(ctx, queueKey, job.ID.String())
	pipe.LPush(ctx, recentKey, job.ID.String())
	pipe.LTrim(ctx, recentKey, 0, recentLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue import %s: %w", job.ID, err)
	}
	return nil
}

// SaveJob overwrites the stored job without touching the queue.
func (s *HybridStore) SaveJob(ctx context.Context, job *model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, jobKey(job.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save import %s: %w", job.ID, err)
	}
	return nil
}

func (s *HybridStore) GetJob(ctx context.Context, id uuid.UUID) (*model.ImportJob, error) {
	val, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var job model.ImportJob
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns the most recently queued jobs, newest first.
func (s *HybridStore) ListJobs(ctx context.Context, limit int) ([]model.ImportJob, error) {
	ids, err := s.rdb.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]model.ImportJob, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		job, err := s.GetJob(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// PopJob blocks up to wait for the next queued job id.
func (s *HybridStore) PopJob(ctx context.Context, wait time.Duration) (uuid.UUID, error) {
	result, err := s.rdb.BRPop(ctx, wait, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrQueueEmpty
	} else if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(result[1])
}
