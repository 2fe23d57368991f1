package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

// ResultMemoryStore 进程内结果缓存。过期条目在读取时惰性剔除。
// 用于单机部署与测试，不跨进程共享。
type ResultMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	hits    atomic.Int64
	misses  atomic.Int64
	now     func() time.Time
}

type memoryEntry struct {
	result   *domain.PricingResult
	expireAt time.Time
}

func NewResultMemoryStore() *ResultMemoryStore {
	return &ResultMemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *ResultMemoryStore) Get(_ context.Context, fingerprint string) (*domain.PricingResult, error) {
	s.mu.RLock()
	entry, ok := s.entries[fingerprint]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expireAt) {
		s.mu.Lock()
		delete(s.entries, fingerprint)
		s.mu.Unlock()
		return nil, nil
	}
	return entry.result, nil
}

func (s *ResultMemoryStore) Set(_ context.Context, fingerprint string, result *domain.PricingResult, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[fingerprint] = memoryEntry{result: result, expireAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *ResultMemoryStore) IncrementHit(context.Context)  { s.hits.Add(1) }
func (s *ResultMemoryStore) IncrementMiss(context.Context) { s.misses.Add(1) }

func (s *ResultMemoryStore) Stats(context.Context) (domain.CacheStats, error) {
	return domain.CacheStats{
		HitCount:  s.hits.Load(),
		MissCount: s.misses.Load(),
	}, nil
}

// TaskMemoryRepository 进程内任务存储。
type TaskMemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

func NewTaskMemoryRepository() *TaskMemoryRepository {
	return &TaskMemoryRepository{tasks: make(map[string]*domain.Task)}
}

func (r *TaskMemoryRepository) Save(_ context.Context, task *domain.Task) error {
	if task == nil {
		return nil
	}
	clone := *task
	r.mu.Lock()
	r.tasks[task.ID] = &clone
	r.mu.Unlock()
	return nil
}

func (r *TaskMemoryRepository) Get(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	clone := *task
	return &clone, nil
}

func (r *TaskMemoryRepository) ListActive(_ context.Context) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []*domain.Task
	for _, task := range r.tasks {
		if task.State.Terminal() {
			continue
		}
		clone := *task
		active = append(active, &clone)
	}
	return active, nil
}
