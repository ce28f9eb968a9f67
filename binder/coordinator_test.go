package binder

import (
	"errors"
	"image"
	"testing"

	"github.com/foxstudiohua/AsynKingfisher/event"
	"github.com/foxstudiohua/AsynKingfisher/runloop"
	"github.com/foxstudiohua/AsynKingfisher/taskid"
)

// testSource is a Source backed by a plain string key.
type testSource string

func (s testSource) CacheKey() string { return string(s) }

// testTarget is a minimal Target with an embedded Binding.
type testTarget struct {
	binding Binding
	slot    image.Image
}

func (t *testTarget) Slot() image.Image       { return t.slot }
func (t *testTarget) SetSlot(img image.Image) { t.slot = img }
func (t *testTarget) Binding() *Binding       { return &t.binding }

// forcingTarget always forces placeholder display, like the watch-class
// targets.
type forcingTarget struct {
	testTarget
}

func (t *forcingTarget) ForcesPlaceholder() bool { return true }

type fakeTask struct {
	cancelled bool
}

func (t *fakeTask) Cancel() { t.cancelled = true }

// pendingFetch is one fetch captured by fakeFetcher, completed manually
// by tests to control interleaving.
type pendingFetch struct {
	src   Source
	opts  Options
	hooks Hooks
	task  *fakeTask
}

func (p *pendingFetch) succeed(img image.Image) {
	p.hooks.OnComplete(Result{Image: img, Source: p.src})
}

func (p *pendingFetch) fail(err error) {
	p.hooks.OnComplete(Result{Source: p.src, Err: err})
}

// fakeFetcher records fetches and resolves the task handle synchronously.
type fakeFetcher struct {
	pending []*pendingFetch
}

func (f *fakeFetcher) Fetch(src Source, opts Options, hooks Hooks) TaskHandle {
	p := &pendingFetch{src: src, opts: opts, hooks: hooks, task: &fakeTask{}}
	f.pending = append(f.pending, p)
	hooks.OnTaskHandle(p.task)
	return p.task
}

func (f *fakeFetcher) last() *pendingFetch {
	return f.pending[len(f.pending)-1]
}

func newTestCoordinator(t *testing.T, opts ...Option) (*Coordinator, *fakeFetcher) {
	t.Helper()
	fetcher := &fakeFetcher{}
	c, err := New(Config{Fetcher: fetcher, Loop: runloop.Inline}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, fetcher
}

func newImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Config{Loop: runloop.Inline}); err == nil {
		t.Error("New should fail without a Fetcher")
	}
	if _, err := New(Config{Fetcher: &fakeFetcher{}}); err == nil {
		t.Error("New should fail without a Loop")
	}
}

func TestCoordinator_BindStartsLoad(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}
	placeholder := newImage()

	handle := c.Bind(target, Request{Source: testSource("a"), Placeholder: placeholder})

	if handle == nil {
		t.Fatal("Bind should return the task handle the fetcher resolved synchronously")
	}
	if len(fetcher.pending) != 1 {
		t.Fatalf("Expected 1 fetch, got %d", len(fetcher.pending))
	}
	if target.Slot() != placeholder {
		t.Error("Placeholder should be applied while loading")
	}
	if target.Binding().Idle() {
		t.Error("Binding should not be idle while a load is pending")
	}
	if target.Binding().Task() != handle {
		t.Error("Binding.Task should hold the in-flight handle")
	}
}

func TestCoordinator_SuccessAppliesImageAndClearsState(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}
	loaded := newImage()

	var got Result
	c.Bind(target, Request{
		Source:     testSource("a"),
		OnComplete: func(r Result) { got = r },
	})
	fetcher.last().succeed(loaded)

	if target.Slot() != loaded {
		t.Error("Slot should hold the loaded image after success")
	}
	if got.Err != nil {
		t.Errorf("Expected success, got error %v", got.Err)
	}
	if got.Image != loaded {
		t.Error("Completion result should carry the loaded image")
	}
	if cur := target.Binding().Current(); cur != taskid.None {
		t.Errorf("Expected identifier cleared after completion, got %d", cur)
	}
	if target.Binding().Task() != nil {
		t.Error("Expected task handle cleared after completion")
	}
}

func TestCoordinator_EmptySource(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}
	placeholder := newImage()

	// Put the target mid-load first so the empty-source bind has pending
	// state to clear.
	c.Bind(target, Request{Source: testSource("a")})

	var got Result
	completed := false
	handle := c.Bind(target, Request{
		Placeholder: placeholder,
		OnComplete: func(r Result) {
			completed = true
			got = r
		},
	})

	if handle != nil {
		t.Error("Empty-source bind should not create a task")
	}
	if !completed {
		t.Fatal("Empty-source completion should be synchronous")
	}
	if !IsEmptySource(got.Err) {
		t.Errorf("Expected ErrEmptySource, got %v", got.Err)
	}
	if target.Slot() != placeholder {
		t.Error("Empty-source bind should apply the supplied placeholder")
	}
	if !target.Binding().Idle() || target.Binding().Task() != nil {
		t.Error("Empty-source bind should leave the binding idle")
	}
	if len(fetcher.pending) != 1 {
		t.Errorf("Empty-source bind should not reach the fetcher, got %d fetches", len(fetcher.pending))
	}
}

func TestCoordinator_EmptySourceWithoutPlaceholderLeavesSlot(t *testing.T) {
	c, _ := newTestCoordinator(t)
	existing := newImage()
	target := &testTarget{slot: existing}

	c.Bind(target, Request{})

	if target.Slot() != existing {
		t.Error("Empty-source bind without a placeholder should leave the slot untouched")
	}
}

func TestCoordinator_StaleCompletionSuppressed(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}
	imgA := newImage()
	imgB := newImage()

	var resultA Result
	c.Bind(target, Request{
		Source:     testSource("a"),
		OnComplete: func(r Result) { resultA = r },
	})
	fetchA := fetcher.last()

	c.Bind(target, Request{Source: testSource("b")})
	fetchB := fetcher.last()

	// B completes first, then A's late success arrives.
	fetchB.succeed(imgB)
	fetchA.succeed(imgA)

	if target.Slot() != imgB {
		t.Error("Slot must reflect only the most recent bind's result")
	}
	stale, ok := AsStale(resultA.Err)
	if !ok {
		t.Fatalf("Superseded completion should report StaleError, got %v", resultA.Err)
	}
	if stale.Superseded.Image != imgA {
		t.Error("StaleError should wrap the superseded load's success value")
	}
	if stale.Superseded.Err != nil {
		t.Errorf("Superseded outcome was success, StaleError carries %v", stale.Superseded.Err)
	}
	if !target.Binding().Idle() {
		t.Error("Binding should be idle after the current load completed")
	}
}

func TestCoordinator_SequentialBindsOnlyLastMutates(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}

	const n = 5
	results := make([]Result, n)
	images := make([]image.Image, n)
	for i := 0; i < n; i++ {
		i := i
		images[i] = newImage()
		c.Bind(target, Request{
			Source:     testSource("src"),
			OnComplete: func(r Result) { results[i] = r },
		})
	}

	// Deliver the last completion first, then every earlier one.
	fetcher.pending[n-1].succeed(images[n-1])
	for i := 0; i < n-1; i++ {
		fetcher.pending[i].succeed(images[i])
	}

	if target.Slot() != images[n-1] {
		t.Error("Only the N-th bind's completion may mutate the slot")
	}
	for i := 0; i < n-1; i++ {
		if !IsStale(results[i].Err) {
			t.Errorf("Bind %d should have completed stale, got %v", i, results[i].Err)
		}
	}
	if results[n-1].Err != nil {
		t.Errorf("Final bind should have succeeded, got %v", results[n-1].Err)
	}
}

func TestCoordinator_StaleCompletionAfterIdle(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}
	imgB := newImage()

	var resultA Result
	c.Bind(target, Request{
		Source:     testSource("a"),
		OnComplete: func(r Result) { resultA = r },
	})
	fetchA := fetcher.last()

	c.Bind(target, Request{Source: testSource("b")})
	fetcher.last().succeed(imgB)

	// Target is idle now; A's completion is still stale, not a state
	// transition.
	fetchA.succeed(newImage())

	if !IsStale(resultA.Err) {
		t.Errorf("Late completion after idle should be stale, got %v", resultA.Err)
	}
	if target.Slot() != imgB {
		t.Error("Late stale completion must not touch the slot")
	}
	if !target.Binding().Idle() {
		t.Error("Binding should remain idle")
	}
}

func TestCoordinator_PlaceholderPolicy(t *testing.T) {
	tests := []struct {
		name        string
		keep        bool
		presetSlot  bool
		forced      bool
		wantApplied bool
	}{
		{"default overwrites", false, true, false, true},
		{"keep with content", true, true, false, false},
		{"keep with empty slot", true, false, false, true},
		{"keep but target forces placeholder", true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCoordinator(t)

			existing := newImage()
			placeholder := newImage()

			var target Target
			if tt.forced {
				target = &forcingTarget{}
			} else {
				target = &testTarget{}
			}
			if tt.presetSlot {
				target.SetSlot(existing)
			}

			c.Bind(target, Request{
				Source:      testSource("a"),
				Placeholder: placeholder,
				Options:     Options{KeepCurrentImageWhileLoading: tt.keep},
			})

			if tt.wantApplied && target.Slot() != placeholder {
				t.Error("Placeholder should have been applied")
			}
			if !tt.wantApplied && target.Slot() != existing {
				t.Error("Existing slot content should have been kept")
			}
		})
	}
}

func TestCoordinator_FailureAppliesFailureImage(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}
	failureImg := newImage()

	var got Result
	c.Bind(target, Request{
		Source:     testSource("c"),
		Options:    Options{OnFailureImage: failureImg},
		OnComplete: func(r Result) { got = r },
	})
	fetchErr := errors.New("connection reset")
	fetcher.last().fail(fetchErr)

	if target.Slot() != failureImg {
		t.Error("Failure image should be applied on terminal failure")
	}
	if !errors.Is(got.Err, fetchErr) {
		t.Errorf("Fetch failure should propagate verbatim, got %v", got.Err)
	}
	if !target.Binding().Idle() {
		t.Error("Binding should be idle after failure")
	}
}

func TestCoordinator_FailureWithoutFailureImageKeepsSlot(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}
	placeholder := newImage()

	c.Bind(target, Request{Source: testSource("c"), Placeholder: placeholder})
	fetcher.last().fail(errors.New("boom"))

	if target.Slot() != placeholder {
		t.Error("Without a failure image the slot keeps the placeholder")
	}
}

func TestCoordinator_CancelNoPendingTask(t *testing.T) {
	c, _ := newTestCoordinator(t)
	target := &testTarget{}

	// Must not panic or error.
	c.Cancel(target)
}

func TestCoordinator_CancelFlowsThroughCompletion(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}

	var got Result
	completed := false
	c.Bind(target, Request{
		Source: testSource("a"),
		OnComplete: func(r Result) {
			completed = true
			got = r
		},
	})
	p := fetcher.last()

	c.Cancel(target)

	if !p.task.cancelled {
		t.Fatal("Cancel should signal the in-flight task")
	}
	if completed {
		t.Fatal("Cancel must not synchronously complete the load")
	}
	if target.Binding().Idle() {
		t.Error("Cancel must not clear binding state; the completion does")
	}

	// Manager delivers the cancellation through the normal path.
	p.fail(ErrCancelled)

	if !completed {
		t.Fatal("Cancellation completion should have been delivered")
	}
	if !IsCancelled(got.Err) {
		t.Errorf("Expected cancellation failure, got %v", got.Err)
	}
	if !target.Binding().Idle() || target.Binding().Task() != nil {
		t.Error("Binding should be idle after the cancellation completion")
	}

	// Double-cancel on an already-finished task is a no-op.
	c.Cancel(target)
}

func TestCoordinator_ProgressObserversAdditiveInOrder(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}

	var calls []string
	c.Bind(target, Request{
		Source: testSource("a"),
		Options: Options{
			Progress: []ProgressFunc{
				func(r, e int64) { calls = append(calls, "first") },
				func(r, e int64) { calls = append(calls, "second") },
			},
		},
		OnProgress: func(r, e int64) { calls = append(calls, "request") },
	})

	fetcher.last().hooks.OnProgress(10, 100)

	want := []string{"first", "second", "request"}
	if len(calls) != len(want) {
		t.Fatalf("Expected %d observer calls, got %d", len(want), len(calls))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Observer %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}

func TestCoordinator_ProgressiveUpdateAppliesToSlot(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}
	partial := newImage()

	c.Bind(target, Request{Source: testSource("a")})
	fetcher.last().hooks.OnProgressive(partial)

	if target.Slot() != partial {
		t.Error("Progressive update should be applied directly to the slot")
	}
	if target.Binding().Idle() {
		t.Error("Progressive update must not complete the load")
	}
}

func TestCoordinator_StillCurrentPredicate(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}

	c.Bind(target, Request{Source: testSource("a")})
	first := fetcher.last()

	if !first.hooks.StillCurrent() {
		t.Error("Predicate should report current before a rebind")
	}

	c.Bind(target, Request{Source: testSource("b")})

	if first.hooks.StillCurrent() {
		t.Error("Predicate should report stale after a rebind")
	}
	if !fetcher.last().hooks.StillCurrent() {
		t.Error("Predicate for the new load should report current")
	}
}

func TestCoordinator_LateTaskHandleIgnoredAfterRebind(t *testing.T) {
	fetcher := &deferredHandleFetcher{}
	c, err := New(Config{Fetcher: fetcher, Loop: runloop.Inline})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	target := &testTarget{}

	if handle := c.Bind(target, Request{Source: testSource("a")}); handle != nil {
		t.Fatal("Handle should be unknown while the fetcher resolves it asynchronously")
	}
	deliverA := fetcher.deliver

	c.Bind(target, Request{Source: testSource("b")})
	deliverB := fetcher.deliver

	taskB := &fakeTask{}
	deliverB(taskB)
	taskA := &fakeTask{}
	deliverA(taskA)

	if target.Binding().Task() != taskB {
		t.Error("A superseded load's late task handle must not shadow the current one")
	}
}

// deferredHandleFetcher resolves task handles asynchronously, via the
// deliver callback captured per fetch.
type deferredHandleFetcher struct {
	deliver func(TaskHandle)
}

func (f *deferredHandleFetcher) Fetch(src Source, opts Options, hooks Hooks) TaskHandle {
	f.deliver = hooks.OnTaskHandle
	return nil
}

func TestCoordinator_PublishesLifecycleEvents(t *testing.T) {
	bus := event.NewBus()
	var types []string
	bus.SubscribeAll(func(e event.Event) { types = append(types, e.EventType()) })

	fetcher := &fakeFetcher{}
	c, err := New(Config{Fetcher: fetcher, Loop: runloop.Inline}, WithBus(bus))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	target := &testTarget{}

	c.Bind(target, Request{Source: testSource("a")})
	fetchA := fetcher.last()
	c.Bind(target, Request{Source: testSource("b")})

	fetchA.hooks.OnProgress(1, 2)
	fetcher.last().succeed(newImage())
	fetchA.succeed(newImage())

	want := []string{"load.started", "load.started", "load.progress", "load.finished", "load.stale"}
	if len(types) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestCoordinator_RebindAfterIdle(t *testing.T) {
	c, fetcher := newTestCoordinator(t)
	target := &testTarget{}

	// A target can be rebound indefinitely; there is no terminal state.
	for i := 0; i < 3; i++ {
		img := newImage()
		c.Bind(target, Request{Source: testSource("s")})
		fetcher.last().succeed(img)
		if target.Slot() != img {
			t.Fatalf("Rebind %d: slot should hold the new image", i)
		}
		if !target.Binding().Idle() {
			t.Fatalf("Rebind %d: binding should return to idle", i)
		}
	}
}
