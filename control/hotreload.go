// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Reload hooks fired when the configuration file is re-read (SIGHUP).

package control

import "sync"

// Reloader re-reads the config file and hands the result to its hooks.
type Reloader struct {
	mu    sync.Mutex
	path  string
	hooks []func(Config)
}

// NewReloader watches nothing by itself; the caller decides when to Reload.
func NewReloader(path string) *Reloader {
	return &Reloader{path: path}
}

// OnReload adds a component reload listener.
func (r *Reloader) OnReload(fn func(Config)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Reload loads the configuration and invokes all hooks synchronously. Hooks
// are not called when loading fails.
func (r *Reloader) Reload() (Config, error) {
	cfg, err := LoadConfig(r.path)
	if err != nil {
		return Config{}, err
	}
	r.mu.Lock()
	hooks := append([]func(Config){}, r.hooks...)
	r.mu.Unlock()
	for _, fn := range hooks {
		fn(cfg)
	}
	return cfg, nil
}
