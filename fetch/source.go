package fetch

import "github.com/foxstudiohua/AsynKingfisher/binder"

// URLProvider is the Source capability the manager requires to reach the
// network. Sources without it can still be served from cache.
type URLProvider interface {
	DownloadURL() string
}

// URLSource is the common case: load an image from an HTTP(S) URL. Key
// overrides the cache key; when empty, the URL itself is the key.
type URLSource struct {
	URL string
	Key string
}

// CacheKey implements binder.Source.
func (s URLSource) CacheKey() string {
	if s.Key != "" {
		return s.Key
	}
	return s.URL
}

// DownloadURL implements URLProvider.
func (s URLSource) DownloadURL() string { return s.URL }

var _ binder.Source = URLSource{}
var _ URLProvider = URLSource{}
