package intelligence

import (
	"sync"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/domain"
)

// Conversation is the transcript of one chat plus its analytics session.
// Turns are appended only when an exchange resolves, and only if no restart
// happened since the exchange began.
type Conversation struct {
	mu         sync.Mutex
	turns      []domain.ConversationTurn
	generation uint64
	inFlight   bool
	session    *analytics.Session
}

func NewConversation(session *analytics.Session) *Conversation {
	return &Conversation{session: session}
}

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []domain.ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ConversationTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Window returns the n most recent turns, oldest first.
func (c *Conversation) Window(n int) []domain.ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := 0
	if n >= 0 && len(c.turns) > n {
		start = len(c.turns) - n
	}
	out := make([]domain.ConversationTurn, len(c.turns)-start)
	copy(out, c.turns[start:])
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

func (c *Conversation) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Conversation) Session() *analytics.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// InFlight reports whether an exchange of the current generation is pending.
func (c *Conversation) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// begin marks an exchange as pending and returns the generation it belongs to.
func (c *Conversation) begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return 0, ErrExchangeInFlight
	}
	c.inFlight = true
	return c.generation, nil
}

// finish clears the pending flag unless a restart already did.
func (c *Conversation) finish(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		c.inFlight = false
	}
}

// commit appends turns if gen is still current.
func (c *Conversation) commit(gen uint64, turns ...domain.ConversationTurn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.turns = append(c.turns, turns...)
	return true
}

// reset discards the transcript, swaps the analytics session and fences off
// any pending exchange. It returns the previous session.
func (c *Conversation) reset(session *analytics.Session) *analytics.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.session
	c.turns = nil
	c.generation++
	c.inFlight = false
	c.session = session
	return prev
}
