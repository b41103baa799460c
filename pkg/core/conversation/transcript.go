package conversation

import (
	"sync"

	"statement_analyst/pkg/core/llm"
)

// Transcript is the ordered, append-only list of chat turns of one session.
// The only way to remove turns is Reset.
type Transcript struct {
	mu    sync.RWMutex
	turns []llm.Message
}

func (t *Transcript) Append(turns ...llm.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, turns...)
}

// Turns returns a copy of the turns.
func (t *Transcript) Turns() []llm.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]llm.Message, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = nil
}
