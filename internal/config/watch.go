package config

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ClinicWatcher keeps the latest valid clinic.yaml in memory and notifies
// subscribers when the file changes. Invalid edits are logged and ignored so
// the previous catalogue stays in effect.
type ClinicWatcher struct {
	path     string
	interval time.Duration
	logger   *zerolog.Logger

	current atomic.Pointer[ClinicConfig]

	mu          sync.Mutex
	subscribers []func(*ClinicConfig)
	lastMod     time.Time
	lastSize    int64
}

// NewClinicWatcher loads path once; the error is returned when the initial
// load fails.
func NewClinicWatcher(path string, interval time.Duration, logger *zerolog.Logger) (*ClinicWatcher, error) {
	if path == "" {
		path = "configs/clinic.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	w := &ClinicWatcher{path: path, interval: interval, logger: logger}
	if _, err := w.reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Current returns the latest valid catalogue.
func (w *ClinicWatcher) Current() *ClinicConfig {
	return w.current.Load()
}

// Subscribe registers fn and calls it immediately with the current catalogue.
func (w *ClinicWatcher) Subscribe(fn func(*ClinicConfig)) {
	w.mu.Lock()
	w.subscribers = append(w.subscribers, fn)
	w.mu.Unlock()
	fn(w.Current())
}

// Run polls the file until ctx is done.
func (w *ClinicWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := w.reload()
			if err != nil {
				w.logger.Warn().Err(err).Str("path", w.path).Msg("clinic config reload skipped")
				continue
			}
			if changed {
				w.logger.Info().Str("summary", w.Current().String()).Msg("clinic config reloaded")
				w.notify()
			}
		}
	}
}

// Check performs one poll; it is what Run does on every tick.
func (w *ClinicWatcher) Check() (bool, error) {
	changed, err := w.reload()
	if err == nil && changed {
		w.notify()
	}
	return changed, err
}

func (w *ClinicWatcher) reload() (bool, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	unchanged := w.current.Load() != nil && info.ModTime().Equal(w.lastMod) && info.Size() == w.lastSize
	w.mu.Unlock()
	if unchanged {
		return false, nil
	}

	cfg, err := LoadClinicConfig(w.path)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	w.lastMod = info.ModTime()
	w.lastSize = info.Size()
	w.mu.Unlock()
	w.current.Store(cfg)
	return true, nil
}

func (w *ClinicWatcher) notify() {
	w.mu.Lock()
	subs := append([]func(*ClinicConfig){}, w.subscribers...)
	w.mu.Unlock()

	cfg := w.Current()
	for _, fn := range subs {
		fn(cfg)
	}
}
