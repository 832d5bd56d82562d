package advisor

import "sync"

// Turn is one completed exchange kept for conversational context.
type Turn struct {
	User      string
	Assistant string
}

// Memory is the bounded in-process conversation buffer. It is trimmed to the
// most recent maxTurns after every append and is never persisted.
type Memory struct {
	mu    sync.Mutex
	turns []Turn
	max   int
}

// NewMemory builds a Memory keeping at most maxTurns exchanges.
func NewMemory(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &Memory{max: maxTurns}
}

// Append records an exchange and trims to the retention bound.
func (m *Memory) Append(user, assistant string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Turn{User: user, Assistant: assistant})
	if len(m.turns) > m.max {
		m.turns = m.turns[len(m.turns)-m.max:]
	}
}

// Turns returns a copy of the retained exchanges, oldest first.
func (m *Memory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len reports the number of retained exchanges.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}
