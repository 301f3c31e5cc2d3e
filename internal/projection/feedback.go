package projection

import (
	"sync"

	"github.com/google/uuid"
)

// PromptTracker remembers which feedback prompts were already surfaced
// in this session. There is no server-side acknowledged flag; the
// one-shot guarantee is local and resets when the session does.
type PromptTracker struct {
	mu    sync.Mutex
	shown map[uuid.UUID]struct{}
}

func NewPromptTracker() *PromptTracker {
	return &PromptTracker{shown: make(map[uuid.UUID]struct{})}
}

// FirstSighting reports whether this id has not been surfaced before,
// and marks it as surfaced. Subsequent calls for the same id return
// false.
func (t *PromptTracker) FirstSighting(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.shown[id]; ok {
		return false
	}
	t.shown[id] = struct{}{}
	return true
}
