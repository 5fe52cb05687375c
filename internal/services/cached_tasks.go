package services

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"task-tracker/internal/cache"
	"task-tracker/internal/events"
	"task-tracker/internal/logging"
	"task-tracker/internal/models"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

const cacheStripes = 64

// stripe serialises writes and invalidations of the ids hashing to it. Its
// generation moves on every invalidation.
type stripe struct {
	mu         sync.Mutex
	generation uint64
}

// TaskCache holds single tasks by id in front of the store. Listings are
// never cached since they depend on the caller and the clock. A nil
// *TaskCache is valid and caches nothing.
//
// A read-through fill is only written when no invalidation of the id
// happened since the row was loaded: callers take a Version before reading
// the store and hand it to Put.
type TaskCache struct {
	cache   cache.Cache
	ttl     time.Duration
	stripes [cacheStripes]stripe
	logger  logrus.FieldLogger
}

func NewTaskCache(c cache.Cache, ttl time.Duration, logger logrus.FieldLogger) *TaskCache {
	if c == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TaskCache{
		cache:  c,
		ttl:    ttl,
		logger: logging.OrDiscard(logger).WithField("component", "task_cache"),
	}
}

func taskCacheKey(id uuid.UUID) string {
	return "task:" + id.String()
}

func (tc *TaskCache) stripeFor(id uuid.UUID) *stripe {
	h := fnv.New32a()
	h.Write(id.Bytes())
	return &tc.stripes[h.Sum32()%cacheStripes]
}

// Version must be read before the row is loaded from the store.
func (tc *TaskCache) Version(id uuid.UUID) uint64 {
	if tc == nil {
		return 0
	}
	st := tc.stripeFor(id)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.generation
}

func (tc *TaskCache) Get(ctx context.Context, id uuid.UUID) (*models.Task, bool) {
	if tc == nil {
		return nil, false
	}

	var task models.Task
	if err := tc.cache.Get(ctx, taskCacheKey(id), &task); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			tc.logger.WithError(err).WithField("task_id", id).Debug("Task cache read failed")
		}
		return nil, false
	}
	return &task, true
}

// Put stores task unless the id was invalidated after version was taken,
// in which case task may predate the change and is dropped.
func (tc *TaskCache) Put(ctx context.Context, task *models.Task, version uint64) {
	if tc == nil || task == nil {
		return
	}

	st := tc.stripeFor(task.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.generation != version {
		tc.logger.WithField("task_id", task.ID).Debug("Skipping task cache fill after invalidation")
		return
	}
	if err := tc.cache.Set(ctx, taskCacheKey(task.ID), task, tc.ttl); err != nil {
		tc.logger.WithError(err).WithField("task_id", task.ID).Debug("Task cache write failed")
	}
}

// Invalidate must run after the change is committed, or a concurrent read
// could repopulate the stale row.
func (tc *TaskCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if tc == nil {
		return
	}

	st := tc.stripeFor(id)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.generation++
	if err := tc.cache.Delete(ctx, taskCacheKey(id)); err != nil {
		tc.logger.WithError(err).WithField("task_id", id).Warn("Task cache invalidation failed")
	}
}

// Follow invalidates cached tasks named by task:updated and task:deleted
// events until the subscription ends. With a redis relay this also drops
// entries other instances changed.
func (tc *TaskCache) Follow(ctx context.Context, sub *events.Subscription) {
	if tc == nil || sub == nil {
		return
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case ev := <-sub.Events():
			if ev.Name != events.TaskUpdated && ev.Name != events.TaskDeleted {
				continue
			}
			var ref struct {
				ID uuid.UUID `json:"id"`
			}
			if err := json.Unmarshal(ev.Data, &ref); err != nil || ref.ID == uuid.Nil {
				continue
			}
			tc.Invalidate(ctx, ref.ID)
		}
	}
}
