package masterlink

import (
	"sync"

	"github.com/agentstation/masterlink/pkg/linkage"
	"github.com/agentstation/masterlink/pkg/table"
)

// Hook function types for run events
type (
	// NewIdentityHook is called once for every record in a run's new matches
	NewIdentityHook func(record table.Row)

	// RunCompleteHook is called after a successful run
	RunCompleteHook func(result *linkage.Result)
)

// hooks manages event callbacks for linkage runs
type hooks struct {
	mu            sync.RWMutex
	onNewIdentity []NewIdentityHook
	onRunComplete []RunCompleteHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnNewIdentity registers a callback for new identity records
func (h *hooks) OnNewIdentity(fn NewIdentityHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onNewIdentity = append(h.onNewIdentity, fn)
}

// OnRunComplete registers a callback for finished runs
func (h *hooks) OnRunComplete(fn RunCompleteHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRunComplete = append(h.onRunComplete, fn)
}

// trigger fires the hooks for a finished run
func (h *hooks) trigger(result *linkage.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, record := range result.NewMatches {
		for _, hook := range h.onNewIdentity {
			hook(record.Copy())
		}
	}
	for _, hook := range h.onRunComplete {
		hook(result)
	}
}
