// Package fetch implements the resource manager consumed by the binding
// coordinator: HTTP download, image decode, cache consultation, and
// progressive partial-image delivery.
//
// The coordinator marshals every hook it hands out onto its UI loop, so
// the manager invokes hooks directly from its worker goroutine. The one
// contract the manager owes the coordinator beyond "exactly one terminal
// completion per fetch" is the progressive-update protocol: StillCurrent
// is re-checked immediately before each progressive delivery, and once
// it reports false no further progressive updates are sent for that
// task.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/foxstudiohua/AsynKingfisher/binder"
	"github.com/foxstudiohua/AsynKingfisher/cache"
	"github.com/foxstudiohua/AsynKingfisher/internal/logging"
)

const defaultChunkSize = 32 * 1024

// Manager performs loads for the binding coordinator. It implements
// binder.Fetcher. Safe for concurrent use.
type Manager struct {
	client       *http.Client
	store        cache.Store
	log          *logging.Logger
	timeout      time.Duration
	allowedHosts []glob.Glob
	chunkSize    int
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	mc := &managerConfig{}
	for _, opt := range opts {
		opt(mc)
	}

	client := mc.client
	if client == nil {
		client = http.DefaultClient
	}
	logger := mc.logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	timeout := mc.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	chunkSize := mc.chunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	return &Manager{
		client:       client,
		store:        mc.store,
		log:          logger.WithComponent("fetch"),
		timeout:      timeout,
		allowedHosts: mc.allowedHosts,
		chunkSize:    chunkSize,
	}
}

// task is one in-flight fetch. Cancel is safe from any goroutine and
// after completion.
type task struct {
	id     string
	cancel context.CancelFunc
	done   atomic.Bool
}

// Cancel implements binder.TaskHandle.
func (t *task) Cancel() {
	if t.done.Load() {
		return
	}
	t.cancel()
}

// Fetch implements binder.Fetcher. It resolves the task handle
// synchronously, both through the return value and through
// hooks.OnTaskHandle, then runs the load on a worker goroutine.
func (m *Manager) Fetch(src binder.Source, opts binder.Options, hooks binder.Hooks) binder.TaskHandle {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = m.timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	t := &task{id: uuid.NewString(), cancel: cancel}
	if hooks.OnTaskHandle != nil {
		hooks.OnTaskHandle(t)
	}

	go m.run(ctx, t, src, opts, hooks)
	return t
}

// run performs the load and delivers exactly one terminal completion.
func (m *Manager) run(ctx context.Context, t *task, src binder.Source, opts binder.Options, hooks binder.Hooks) {
	defer t.cancel()

	key := src.CacheKey()
	log := m.log.With("download_id", t.id, "cache_key", key)

	complete := func(res binder.Result) {
		t.done.Store(true)
		if hooks.OnComplete != nil {
			hooks.OnComplete(res)
		}
	}

	if m.store != nil && !opts.ForceRefresh {
		if img, ok := m.fromCache(ctx, key, log); ok {
			log.Debug("cache hit")
			complete(binder.Result{Image: img, Source: src})
			return
		}
	}

	provider, ok := src.(URLProvider)
	if !ok {
		complete(binder.Result{Source: src, Err: fmt.Errorf("fetch %s: source has no download URL", key)})
		return
	}

	data, err := m.download(ctx, provider.DownloadURL(), hooks, log)
	if err != nil {
		complete(binder.Result{Source: src, Err: m.classify(key, err)})
		return
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		complete(binder.Result{Source: src, Err: fmt.Errorf("fetch %s: decode: %w", key, err)})
		return
	}

	if m.store != nil {
		if encoded, err := cache.Encode(format, data); err == nil {
			if err := m.store.Set(ctx, key, encoded, 0); err != nil {
				log.Warn("cache store failed", "error", err)
			}
		}
	}

	log.Debug("download finished", "format", format, "bytes", len(data))
	complete(binder.Result{Image: img, Source: src})
}

// fromCache attempts to serve the load from the configured store.
func (m *Manager) fromCache(ctx context.Context, key string, log *logging.Logger) (image.Image, bool) {
	data, ok, err := m.store.Get(ctx, key)
	if err != nil {
		log.Warn("cache lookup failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	_, payload, err := cache.Decode(data)
	if err != nil {
		log.Warn("cache entry corrupt", "error", err)
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		log.Warn("cached payload undecodable", "error", err)
		return nil, false
	}
	return img, true
}

// download retrieves the body, reporting progress per chunk and
// attempting a progressive decode of what has arrived so far. Once
// StillCurrent reports false, progressive deliveries stop for good.
func (m *Manager) download(ctx context.Context, rawURL string, hooks binder.Hooks, log *logging.Logger) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if !m.hostAllowed(u.Host) {
		return nil, fmt.Errorf("host %q not in allowlist", u.Host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	expected := resp.ContentLength // -1 when unknown
	var body bytes.Buffer
	chunk := make([]byte, m.chunkSize)
	progressive := hooks.OnProgressive != nil && hooks.StillCurrent != nil
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			body.Write(chunk[:n])
			if hooks.OnProgress != nil {
				hooks.OnProgress(int64(body.Len()), expected)
			}
			if progressive {
				if !hooks.StillCurrent() {
					// Superseded: the coordinator no longer wants
					// partial frames for this task.
					progressive = false
				} else if img, _, derr := image.Decode(bytes.NewReader(body.Bytes())); derr == nil {
					if hooks.StillCurrent() {
						hooks.OnProgressive(img)
					}
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return body.Bytes(), nil
}

// hostAllowed applies the allowlist globs; an empty allowlist admits
// every host.
func (m *Manager) hostAllowed(host string) bool {
	if len(m.allowedHosts) == 0 {
		return true
	}
	for _, g := range m.allowedHosts {
		if g.Match(host) {
			return true
		}
	}
	return false
}

// classify wraps transport errors, folding context cancellation into the
// coordinator's cancellation sentinel so callers can tell an aborted
// load from a failed one.
func (m *Manager) classify(key string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("fetch %s: %w", key, binder.ErrCancelled)
	}
	return fmt.Errorf("fetch %s: %w", key, err)
}

var _ binder.Fetcher = (*Manager)(nil)
