package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watcher reloads the configuration when the config file changes and
// notifies a callback with the fresh Config. Reload failures keep the
// previous configuration and are reported through the error callback.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	onError  func(error)

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// NewWatcher watches the config file viper currently has loaded.
// onChange receives each successfully reloaded Config; onError is
// optional.
func NewWatcher(onChange func(*Config), onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		onError:  onError,
		stopCh:   make(chan struct{}),
	}

	// Watch the directory rather than the file: editors replace files
	// on save, which drops a watch on the file itself.
	if file := viper.ConfigFileUsed(); file != "" {
		if err := fw.Add(filepath.Dir(file)); err != nil {
			fw.Close()
			return nil, err
		}
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	configFile := viper.ConfigFileUsed()
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if configFile == "" || filepath.Clean(ev.Name) != filepath.Clean(configFile) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.fail(err)
		}
	}
}

func (w *Watcher) reload() {
	if err := viper.ReadInConfig(); err != nil {
		w.fail(err)
		return
	}
	cfg, err := Load()
	if err != nil {
		w.fail(err)
		return
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// Stop ends watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	return w.watcher.Close()
}
