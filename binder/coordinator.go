package binder

import (
	"errors"
	"image"

	"github.com/foxstudiohua/AsynKingfisher/event"
	"github.com/foxstudiohua/AsynKingfisher/internal/logging"
	"github.com/foxstudiohua/AsynKingfisher/runloop"
	"github.com/foxstudiohua/AsynKingfisher/taskid"
)

// Config holds required dependencies for creating a Coordinator.
type Config struct {
	// Fetcher performs the actual loads.
	Fetcher Fetcher

	// Loop is the UI-affine dispatcher. Every slot and binding-state
	// mutation the coordinator performs after Bind returns is marshaled
	// through it.
	Loop runloop.Dispatcher
}

// Coordinator binds asynchronous loads to reusable display targets. It
// guarantees that of all loads ever started against one target, only the
// most recently bound one may mutate the target's slot: completions of
// superseded loads, however late they arrive, are suppressed and
// reported as stale.
//
// Bind and Cancel must be called from the UI loop. Completion and
// progress callbacks are always delivered back on it.
type Coordinator struct {
	fetcher Fetcher
	loop    runloop.Dispatcher
	gen     *taskid.Generator
	bus     *event.Bus
	log     *logging.Logger
}

// New creates a Coordinator.
func New(cfg Config, opts ...Option) (*Coordinator, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("binder: Fetcher is required")
	}
	if cfg.Loop == nil {
		return nil, errors.New("binder: Loop is required")
	}

	cc := &coordinatorConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	logger := cc.logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	gen := cc.gen
	if gen == nil {
		gen = &taskid.Generator{}
	}

	return &Coordinator{
		fetcher: cfg.Fetcher,
		loop:    cfg.Loop,
		gen:     gen,
		bus:     cc.bus,
		log:     logger.WithComponent("binder"),
	}, nil
}

// Bind points target at req.Source, replacing whatever load was pending.
//
// With no source, the slot receives the placeholder (when one is given),
// the binding state clears, and OnComplete runs synchronously with
// ErrEmptySource; no task is created.
//
// Otherwise the placeholder is applied per the placeholder policy, a
// fresh identifier is recorded for the target, and the fetch starts. The
// returned handle is nil when the fetcher resolves it asynchronously;
// Binding.Task is the authoritative value once the fetcher reports it.
//
// The completion, marshaled back onto the UI loop, mutates the slot only
// if its identifier still matches the target's current one. A superseded
// completion leaves slot and state untouched and reports a StaleError
// wrapping the outcome it would have delivered.
func (c *Coordinator) Bind(target Target, req Request) TaskHandle {
	st := target.Binding()

	if req.Source == nil {
		if req.Placeholder != nil {
			target.SetSlot(req.Placeholder)
		}
		st.clear()
		c.log.Debug("bind with no source")
		if req.OnComplete != nil {
			req.OnComplete(Result{Err: ErrEmptySource})
		}
		return nil
	}

	forced := false
	if f, ok := target.(PlaceholderForcer); ok {
		forced = f.ForcesPlaceholder()
	}
	if !req.Options.KeepCurrentImageWhileLoading || target.Slot() == nil || forced {
		target.SetSlot(req.Placeholder)
	}

	id := c.gen.Next()
	st.setCurrent(id)

	key := req.Source.CacheKey()
	log := c.log.WithTask(uint64(id))
	log.Debug("load started", "cache_key", key)
	if c.bus != nil {
		c.bus.Publish(event.NewLoadStartedEvent(id, key))
	}

	observers := appendProgress(req.Options.Progress, req.OnProgress)

	hooks := Hooks{
		OnTaskHandle: func(h TaskHandle) {
			c.loop.Post(func() {
				// A handle for a superseded load must not shadow the
				// current one.
				if st.Current() == id {
					st.setTask(h)
				}
			})
		},
		OnProgressive: func(img image.Image) {
			c.loop.Post(func() {
				target.SetSlot(img)
			})
		},
		OnProgress: func(received, expected int64) {
			c.loop.Post(func() {
				for _, f := range observers {
					f(received, expected)
				}
				if c.bus != nil {
					c.bus.Publish(event.NewLoadProgressEvent(id, received, expected))
				}
			})
		},
		StillCurrent: func() bool {
			return st.Current() == id
		},
		OnComplete: func(res Result) {
			c.loop.Post(func() {
				c.complete(target, st, id, key, req, res)
			})
		},
	}

	return c.fetcher.Fetch(req.Source, req.Options, hooks)
}

// complete runs on the UI loop and is the single path from Loading back
// to Idle for every terminal outcome: success, fetch failure, and
// cancellation all land here.
func (c *Coordinator) complete(target Target, st *Binding, id taskid.ID, key string, req Request, res Result) {
	log := c.log.WithTask(uint64(id))

	current := st.Current()
	if current != id {
		log.Debug("completion suppressed for superseded load",
			"current_task_id", uint64(current),
			"cache_key", key)
		if c.bus != nil {
			c.bus.Publish(event.NewLoadStaleEvent(id, current, key))
		}
		if req.OnComplete != nil {
			req.OnComplete(Result{Source: res.Source, Err: &StaleError{Superseded: res}})
		}
		return
	}

	st.clear()

	if res.Err == nil {
		target.SetSlot(res.Image)
		log.Debug("load finished", "cache_key", key)
	} else {
		if req.Options.OnFailureImage != nil {
			target.SetSlot(req.Options.OnFailureImage)
		}
		log.Warn("load failed", "cache_key", key, "error", res.Err)
	}

	if c.bus != nil {
		if IsCancelled(res.Err) {
			c.bus.Publish(event.NewLoadCancelledEvent(id, key))
		} else {
			c.bus.Publish(event.NewLoadFinishedEvent(id, key, res.Err))
		}
	}
	if req.OnComplete != nil {
		req.OnComplete(res)
	}
}

// Cancel cancels the pending load for target, if any. Cancellation is
// cooperative: binding state is not cleared here but by the cancelled
// task's own completion, keeping one code path responsible for the
// transition back to idle. Cancel with no pending task is a no-op.
func (c *Coordinator) Cancel(target Target) {
	if t := target.Binding().Task(); t != nil {
		c.log.Debug("cancelling load", "task_id", uint64(target.Binding().Current()))
		t.Cancel()
	}
}
