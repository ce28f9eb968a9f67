package fetch

import (
	"net/http"
	"time"

	"github.com/gobwas/glob"

	"github.com/foxstudiohua/AsynKingfisher/cache"
	"github.com/foxstudiohua/AsynKingfisher/internal/logging"
)

// DefaultTimeout bounds a fetch when neither the manager nor the load
// options set one.
const DefaultTimeout = 30 * time.Second

// managerConfig holds optional configuration for a Manager.
type managerConfig struct {
	client       *http.Client
	store        cache.Store
	logger       *logging.Logger
	timeout      time.Duration
	allowedHosts []glob.Glob
	chunkSize    int
}

// Option configures a Manager.
type Option func(*managerConfig)

// WithClient sets the HTTP client used for downloads. If unset,
// http.DefaultClient is used.
func WithClient(c *http.Client) Option {
	return func(mc *managerConfig) { mc.client = c }
}

// WithStore sets the cache consulted before downloading and populated
// after a successful decode. If nil, every fetch goes to the network.
func WithStore(s cache.Store) Option {
	return func(mc *managerConfig) { mc.store = s }
}

// WithLogger sets the structured logger. If unset, logging is disabled.
func WithLogger(l *logging.Logger) Option {
	return func(mc *managerConfig) { mc.logger = l }
}

// WithTimeout sets the default per-fetch timeout, used when the load
// options carry none. Zero falls back to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(mc *managerConfig) { mc.timeout = d }
}

// WithAllowedHosts restricts downloads to hosts matching any of the
// given glob patterns (e.g. "*.example.com", "cdn-??.imgs.net"). With no
// patterns, every host is allowed. Patterns that fail to compile are
// skipped.
func WithAllowedHosts(patterns ...string) Option {
	return func(mc *managerConfig) {
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				continue
			}
			mc.allowedHosts = append(mc.allowedHosts, g)
		}
	}
}

// withChunkSize overrides the download chunk size. Test hook.
func withChunkSize(n int) Option {
	return func(mc *managerConfig) { mc.chunkSize = n }
}
