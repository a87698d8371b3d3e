package httpapi

import (
	"sync"
	"time"

	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/google/uuid"
)

type sessionEntry struct {
	conv     *intelligence.Conversation
	lastSeen time.Time
}

// sessionRegistry holds the in-memory conversations of widget visitors,
// keyed by an opaque id handed to the client.
type sessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	now     func() time.Time
	newID   func() string
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		entries: make(map[string]*sessionEntry),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

func (r *sessionRegistry) add(conv *intelligence.Conversation) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.newID()
	r.entries[id] = &sessionEntry{conv: conv, lastSeen: r.now()}
	return id
}

func (r *sessionRegistry) get(id string) (*intelligence.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.conv, true
}

func (r *sessionRegistry) remove(id string) (*intelligence.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)
	return e.conv, true
}

// expire removes conversations idle for longer than ttl and returns them so
// their analytics sessions can be closed. Conversations with an exchange in
// flight are kept.
func (r *sessionRegistry) expire(ttl time.Duration) []*intelligence.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	var out []*intelligence.Conversation
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) && !e.conv.InFlight() {
			out = append(out, e.conv)
			delete(r.entries, id)
		}
	}
	return out
}

// drain removes every conversation.
func (r *sessionRegistry) drain() []*intelligence.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*intelligence.Conversation, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, e.conv)
		delete(r.entries, id)
	}
	return out
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
