package intelligence

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/catalog"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/llm"
	"github.com/alexanderramin/coursechat/internal/testutil"
)

var testToday = time.Date(2025, 12, 10, 15, 30, 0, 0, time.UTC)

// scriptedModel replays one step per call and keeps every request.
type scriptedModel struct {
	mu       sync.Mutex
	steps    []modelStep
	requests []llm.ChatRequest
	// gate, when set, blocks the first call until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

type modelStep struct {
	resp *llm.ChatResponse
	err  error
}

func (m *scriptedModel) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	i := len(m.requests)
	m.requests = append(m.requests, req)
	gate := m.gate
	m.mu.Unlock()

	if gate != nil && i == 0 {
		if m.entered != nil {
			close(m.entered)
		}
		<-gate
	}
	if i >= len(m.steps) {
		i = len(m.steps) - 1
	}
	return m.steps[i].resp, m.steps[i].err
}

func (m *scriptedModel) Requests() []llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.ChatRequest(nil), m.requests...)
}

func reply(content string) modelStep {
	return modelStep{resp: &llm.ChatResponse{Content: content}}
}

func toolCall(id, name, args string) modelStep {
	return modelStep{resp: &llm.ChatResponse{ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: args}}}}
}

func failure(err error) modelStep {
	return modelStep{err: err}
}

type loggedSearch struct {
	SessionID    string
	Term, Period string
}

// fakeTracker keeps analytics in memory.
type fakeTracker struct {
	mu       sync.Mutex
	started  int
	closed   []string
	searches []loggedSearch
}

func (f *fakeTracker) InitSession(_ context.Context, clientTag string) (*analytics.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return &analytics.Session{ID: clientTag + "-" + string(rune('0'+f.started)), ClientTag: clientTag, StartedAt: testToday}, nil
}

func (f *fakeTracker) LogSearch(_ context.Context, s *analytics.Session, term, period string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, loggedSearch{SessionID: s.ID, Term: term, Period: period})
	return nil
}

func (f *fakeTracker) Close(_ context.Context, s *analytics.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, s.ID)
	return nil
}

func (f *fakeTracker) Searches() []loggedSearch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]loggedSearch(nil), f.searches...)
}

// testCatalog is a small admitted catalog. Ids 1 and 2 share name, day and
// venue so they collapse to one card.
func testCatalog() *catalog.Store {
	return catalog.NewStaticStore([]domain.CourseOffering{
		testutil.NewTestCourse("SMSTS | Batch A", testutil.Day(2025, 12, 15), testutil.WithID(1), testutil.WithVenue("Stratford")),
		testutil.NewTestCourse("SMSTS | Batch B", testutil.Day(2025, 12, 15), testutil.WithID(2), testutil.WithVenue("Stratford")),
		testutil.NewTestCourse("SSSTS", testutil.Day(2025, 12, 20), testutil.WithID(3), testutil.WithVenue("Chelmsford")),
		testutil.NewTestCourse("First Aid at Work", testutil.Day(2026, 1, 5), testutil.WithID(4), testutil.WithVenue("Online")),
	})
}

func newTestService(model *scriptedModel, tracker *fakeTracker, cfg ChatConfig) (*chatService, *catalog.Store) {
	store := testCatalog()
	var recorder SearchRecorder
	var sessions SessionTracker
	if tracker != nil {
		recorder = tracker
		sessions = tracker
	}
	tools := NewToolExecutor(store, nil, nil, recorder, nil)
	svc := NewChatService(model, tools, store, sessions, cfg, nil).(*chatService)
	svc.now = func() time.Time { return testToday }
	return svc, store
}
