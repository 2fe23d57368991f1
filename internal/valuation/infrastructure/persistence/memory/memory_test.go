package memory

import (
	"context"
	"testing"
	"time"

	"github.com/wyfcoding/valuationengine/internal/valuation/domain"
)

func TestResultStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewResultMemoryStore()

	now := time.Now()
	store.now = func() time.Time { return now }

	result := &domain.PricingResult{Model: domain.ModelBlackScholes, Price: 2.5}
	if err := store.Set(ctx, "fp", result, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.Get(ctx, "fp")
	if err != nil || got == nil {
		t.Fatalf("expected fresh entry, got %v %v", got, err)
	}

	// 越过 TTL 后惰性剔除。
	now = now.Add(2 * time.Minute)
	got, err = store.Get(ctx, "fp")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Error("expired entry should be evicted on read")
	}
}

func TestResultStoreMissIsNil(t *testing.T) {
	store := NewResultMemoryStore()
	got, err := store.Get(context.Background(), "absent")
	if err != nil || got != nil {
		t.Errorf("miss should be (nil, nil), got %v %v", got, err)
	}
}

func TestTaskRepositoryActiveIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskMemoryRepository()

	queued := domain.NewTask(domain.Job{Model: domain.ModelBlackScholes}, "fp-1")
	if err := repo.Save(ctx, queued); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	finished := domain.NewTask(domain.Job{Model: domain.ModelBlackScholes}, "fp-2")
	if err := finished.TransitionTo(domain.TaskRunning); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := finished.Complete(&domain.PricingResult{}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := repo.Save(ctx, finished); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != queued.ID {
		t.Errorf("expected only the queued task active, got %d entries", len(active))
	}
}

func TestTaskRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskMemoryRepository()

	task := domain.NewTask(domain.Job{Model: domain.ModelBlackScholes}, "fp")
	if err := repo.Save(ctx, task); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := repo.Get(ctx, task.ID)
	if err != nil || loaded == nil {
		t.Fatalf("get failed: %v %v", loaded, err)
	}
	loaded.Progress = 50

	reloaded, _ := repo.Get(ctx, task.ID)
	if reloaded.Progress != 0 {
		t.Error("mutating a loaded task must not leak into the repository")
	}
}
