package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"vectra/internal/logger"
)

// ChangeListener receives the freshly validated config after a reload.
type ChangeListener func(*Config)

// Watcher re-reads the config file on filesystem change and pushes the new
// trading bounds to subscribers. A reload that fails validation keeps the
// previous config in force.
type Watcher struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	current   *Config
	listeners []ChangeListener
}

// NewWatcher loads the file once and starts listening for FS events.
func NewWatcher(path string) (*Watcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config watcher requires path")
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("watch config failed: %w", err)
	}
	w := &Watcher{path: path, v: v, current: cfg}
	v.OnConfigChange(func(evt fsnotify.Event) {
		next, err := Load(w.path)
		if err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		w.mu.Lock()
		w.current = next
		listeners := append([]ChangeListener(nil), w.listeners...)
		w.mu.Unlock()
		logger.Infof("config reloaded from %s", evt.Name)
		for _, fn := range listeners {
			fn(next)
		}
	})
	v.WatchConfig()
	return w, nil
}

// Current returns the latest validated config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe registers a listener for future reloads.
func (w *Watcher) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}
