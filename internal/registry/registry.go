package registry

import (
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry maps host names to the view of each open device.
//
// All methods are safe for concurrent use.
type Registry struct {
	views  map[string]presence.View
	mu     sync.RWMutex
	logger Logger
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		views:  make(map[string]presence.View),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// UpsertOpen records view if its host is absent.
//
// An existing entry is left untouched. Returns true if the view was inserted.
func (r *Registry) UpsertOpen(view presence.View) bool {
	host := view.Identity.HostName

	r.mu.Lock()
	if _, ok := r.views[host]; ok {
		r.mu.Unlock()
		r.logger.Debug("device already registered", "host_name", host)
		return false
	}
	r.views[host] = view
	size := len(r.views)
	r.mu.Unlock()

	r.logger.Debug("registry entry added", "host_name", host, "devices", size)
	return true
}

// Remove deletes the entry for host if present. Returns true if an entry was removed.
func (r *Registry) Remove(host string) bool {
	r.mu.Lock()
	if _, ok := r.views[host]; !ok {
		r.mu.Unlock()
		r.logger.Debug("device not registered, nothing to remove", "host_name", host)
		return false
	}
	delete(r.views, host)
	size := len(r.views)
	r.mu.Unlock()

	r.logger.Debug("registry entry removed", "host_name", host, "devices", size)
	return true
}

// Touch records a non-terminal signal for a present host.
//
// Absent hosts are ignored; Touch never inserts. Returns true if an entry was updated.
func (r *Registry) Touch(host string, s presence.Signal, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	view, ok := r.views[host]
	if !ok {
		return false
	}
	view.LastSignal = s
	view.LastSeen = at
	r.views[host] = view
	return true
}

// Get returns the view for host.
func (r *Registry) Get(host string) (presence.View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	view, ok := r.views[host]
	return view, ok
}

// Snapshot returns a point-in-time copy of the registry.
//
// The returned map is owned by the caller and never aliases internal storage.
func (r *Registry) Snapshot() map[string]presence.View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Clone(r.views)
}

// List returns the snapshot as a slice sorted by host name.
func (r *Registry) List() []presence.View {
	snapshot := r.Snapshot()

	views := make([]presence.View, 0, len(snapshot))
	for _, v := range snapshot {
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Identity.HostName < views[j].Identity.HostName
	})
	return views
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.views)
}
