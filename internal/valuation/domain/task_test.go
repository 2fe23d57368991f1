package domain

import (
	"errors"
	"testing"
)

func newTestTask() *Task {
	return NewTask(Job{Model: ModelBlackScholes, Instrument: &InstrumentSpec{
		Spot: 100, Strike: 105, TimeToExpiry: 0.25, RiskFreeRate: 0.05,
		Volatility: 0.2, OptionType: OptionCall,
	}}, "black_scholes:test")
}

func TestTaskLifecycle(t *testing.T) {
	task := newTestTask()
	if task.State != TaskQueued {
		t.Fatalf("new task state %s, want queued", task.State)
	}
	if task.ID == "" {
		t.Fatal("task should get an id")
	}

	if err := task.TransitionTo(TaskRunning); err != nil {
		t.Fatalf("queued -> running failed: %v", err)
	}
	if task.StartedAt == nil {
		t.Error("running task should record start time")
	}

	if err := task.Complete(&PricingResult{Model: ModelBlackScholes, Price: 2.5}); err != nil {
		t.Fatalf("running -> completed failed: %v", err)
	}
	if task.Progress != 100 {
		t.Errorf("completed task progress %d, want 100", task.Progress)
	}
	if task.CompletedAt == nil || task.Result == nil {
		t.Error("completed task should carry result and completion time")
	}
}

func TestTaskIllegalTransitions(t *testing.T) {
	task := newTestTask()
	if err := task.TransitionTo(TaskCompleted); err == nil {
		t.Error("queued -> completed should be rejected")
	}

	if err := task.TransitionTo(TaskRunning); err != nil {
		t.Fatalf("queued -> running failed: %v", err)
	}
	if err := task.Complete(&PricingResult{}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	// 终态不可迁出。
	for _, next := range []TaskState{TaskQueued, TaskRunning, TaskFailed, TaskCancelled} {
		if err := task.TransitionTo(next); err == nil {
			t.Errorf("completed -> %s should be rejected", next)
		}
	}
}

func TestTaskCancelDiscardsResult(t *testing.T) {
	task := newTestTask()
	if err := task.TransitionTo(TaskRunning); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	task.Result = &PricingResult{Price: 1}
	if err := task.CancelNow(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if task.Result != nil {
		t.Error("cancelled task must not carry partial results")
	}
	if !task.State.Terminal() {
		t.Error("cancelled should be terminal")
	}
}

func TestTaskFailKeepsError(t *testing.T) {
	task := newTestTask()
	if err := task.TransitionTo(TaskRunning); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := task.Fail(errors.New("kernel blew up")); err != nil {
		t.Fatalf("fail transition failed: %v", err)
	}
	if task.Error != "kernel blew up" {
		t.Errorf("task error %q not recorded", task.Error)
	}
	if task.Result != nil {
		t.Error("failed task must not carry a result")
	}
}

func TestCachedTaskIsTerminal(t *testing.T) {
	result := &PricingResult{Model: ModelBlackScholes, Price: 2.5}
	task := NewCachedTask(Job{Model: ModelBlackScholes}, "fp", result)
	if task.State != TaskCompleted || task.Progress != 100 {
		t.Errorf("cached task should be completed at 100%%, got %s/%d", task.State, task.Progress)
	}
	if !task.CacheHit {
		t.Error("cached task should be flagged as cache hit")
	}
	if task.Result != result {
		t.Error("cached task should carry the cached result")
	}
}

func TestJobValidateModelPayloadPairing(t *testing.T) {
	if err := (Job{Model: ModelBond}).Validate(); !IsInvalidParameter(err) {
		t.Errorf("bond job without bond spec should be invalid, got %v", err)
	}
	if err := (Job{Model: "quantum"}).Validate(); !IsInvalidParameter(err) {
		t.Errorf("unknown model should be invalid, got %v", err)
	}
	y := 0.05
	job := Job{Model: ModelBond, Bond: &BondSpec{FaceValue: 1000, CouponRate: 0.05, YearsToMaturity: 5, Yield: &y}}
	if err := job.Validate(); err != nil {
		t.Errorf("valid bond job rejected: %v", err)
	}
}
