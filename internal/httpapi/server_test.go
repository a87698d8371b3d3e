package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/catalog"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/llm"
	"github.com/alexanderramin/coursechat/internal/search"
	"github.com/alexanderramin/coursechat/internal/service"
	"github.com/alexanderramin/coursechat/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	result   *intelligence.ExchangeResult
	err      error
	inputs   []string
	started  int
	restarts int
	ended    int
	tracker  *analytics.Tracker
}

func (f *fakeChat) Start(ctx context.Context, clientTag string) (*intelligence.Conversation, error) {
	f.started++
	var session *analytics.Session
	if f.tracker != nil {
		s, err := f.tracker.InitSession(ctx, clientTag)
		if err != nil {
			return nil, err
		}
		session = s
	}
	return intelligence.NewConversation(session), nil
}

func (f *fakeChat) Send(_ context.Context, _ *intelligence.Conversation, input string) (*intelligence.ExchangeResult, error) {
	f.inputs = append(f.inputs, input)
	if strings.TrimSpace(input) == "" {
		return nil, intelligence.ErrEmptyMessage
	}
	return f.result, f.err
}

func (f *fakeChat) Restart(context.Context, *intelligence.Conversation, string) error {
	f.restarts++
	return nil
}

func (f *fakeChat) End(context.Context, *intelligence.Conversation) error {
	f.ended++
	return nil
}

type harness struct {
	srv     *Server
	chat    *fakeChat
	tracker *analytics.Tracker
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := testutil.NewTestDB(t)
	tracker := analytics.NewTracker(testutil.NewTestUoW(conn), conn, nil)
	courses := []domain.CourseOffering{
		testutil.NewTestCourse("SMSTS | Batch A", testutil.Day(2025, 12, 15), testutil.WithID(1), testutil.WithVenue("Stratford"), testutil.WithReference("smsts")),
		testutil.NewTestCourse("SSSTS", testutil.Day(2025, 12, 20), testutil.WithID(2), testutil.WithVenue("Chelmsford"), testutil.WithReference("sssts")),
	}
	store := catalog.NewStaticStore(courses)
	chat := &fakeChat{
		tracker: tracker,
		result: &intelligence.ExchangeResult{
			Reply: domain.StructuredReply{Reply: "Here is the SMSTS course.", SuggestedCourseIDs: []int{1}, DisambiguationOptions: []string{}},
			Cards: store.ResolveCards([]int{1}),
		},
	}
	deps := Deps{
		Chat:      chat,
		Courses:   service.NewCourseService(store, search.NewEngine(search.Options{}), nil, intelligence.DefaultRegionTable()),
		Analytics: service.NewAnalyticsService(tracker),
	}
	return &harness{srv: New(deps, opts, nil), chat: chat, tracker: tracker}
}

func (h *harness) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) newSession(t *testing.T) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestServer_MessageRoundTrip(t *testing.T) {
	h := newHarness(t, Options{Greeting: "Hi"})
	id := h.newSession(t)

	rec := h.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"message":"smsts in london"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Here is the SMSTS course.", resp.Reply)
	assert.Equal(t, []int{1}, resp.SuggestedCourseIDs)
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, "SMSTS", resp.Cards[0].Name)
	assert.Equal(t, "Stratford", resp.Cards[0].Venue)
	assert.Equal(t, []string{"smsts in london"}, h.chat.inputs)
}

func TestServer_UnknownSession(t *testing.T) {
	h := newHarness(t, Options{})
	rec := h.do(t, http.MethodPost, "/api/sessions/nope/messages", `{"message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MissingMessageIsBadRequest(t *testing.T) {
	h := newHarness(t, Options{})
	id := h.newSession(t)
	rec := h.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ExchangeErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"auth", fmt.Errorf("send: %w", llm.ErrAuth), http.StatusServiceUnavailable, intelligence.ConfigErrorMessage},
		{"disabled", llm.ErrDisabled, http.StatusServiceUnavailable, intelligence.ConfigErrorMessage},
		{"overloaded", llm.ErrOverloaded, http.StatusTooManyRequests, intelligence.OverloadedMessage},
		{"in flight", intelligence.ErrExchangeInFlight, http.StatusConflict, intelligence.InFlightMessage},
		{"stale", intelligence.ErrStaleExchange, http.StatusConflict, ""},
		{"other", context.DeadlineExceeded, http.StatusServiceUnavailable, intelligence.GenericFailureReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			h.chat.err = tt.err
			h.chat.result = nil
			id := h.newSession(t)

			rec := h.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"message":"hi"}`)
			assert.Equal(t, tt.status, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestServer_RestartAndEnd(t *testing.T) {
	h := newHarness(t, Options{})
	id := h.newSession(t)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/sessions/"+id+"/restart", "").Code)
	assert.Equal(t, 1, h.chat.restarts)

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/api/sessions/"+id, "").Code)
	assert.Equal(t, 1, h.chat.ended)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, "/api/sessions/"+id, "").Code)
}

func TestServer_ConversionIsRecorded(t *testing.T) {
	h := newHarness(t, Options{})
	id := h.newSession(t)

	rec := h.do(t, http.MethodPost, "/api/sessions/"+id+"/conversion", `{"course":"SMSTS"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	stats, err := h.tracker.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalConversions)
}

func TestServer_SearchAndDetails(t *testing.T) {
	h := newHarness(t, Options{})

	rec := h.do(t, http.MethodGet, "/api/search?location=London&expand=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []int{1}, res.IDs())

	rec = h.do(t, http.MethodGet, "/api/search?query=nothing-like-this", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, res.Courses)
	assert.Equal(t, search.NoCoursesMessage, res.Message)

	rec = h.do(t, http.MethodGet, "/api/search?dateStart=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/details/NEBOSH%20GENERAL%20CERTIFICATE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail service.CourseDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.True(t, detail.Found)
}

func TestServer_ListCourses(t *testing.T) {
	h := newHarness(t, Options{})

	rec := h.do(t, http.MethodGet, "/api/courses?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Courses []Card `json:"courses"`
		Total   int    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Courses, 1)
	assert.Equal(t, 2, resp.Total)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/courses?limit=x", "").Code)
}

func TestServer_AdminRoutes(t *testing.T) {
	t.Run("unmounted without token", func(t *testing.T) {
		h := newHarness(t, Options{})
		assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/admin/analytics", "").Code)
	})

	t.Run("token required", func(t *testing.T) {
		h := newHarness(t, Options{AdminToken: "s3cret"})
		h.newSession(t)

		assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/admin/analytics", "").Code)
		assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/admin/analytics", "", "X-Admin-Token", "wrong").Code)

		rec := h.do(t, http.MethodGet, "/api/admin/analytics", "", "Authorization", "Bearer s3cret")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp AnalyticsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Stats.TotalVisits)
		require.Len(t, resp.Sessions, 1)
		assert.Equal(t, ClientTag, resp.Sessions[0].ClientTag)

		assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/api/admin/analytics", "", "X-Admin-Token", "s3cret").Code)
		rec = h.do(t, http.MethodGet, "/api/admin/analytics", "", "X-Admin-Token", "s3cret")
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Sessions)
	})
}

func TestServer_Health(t *testing.T) {
	h := newHarness(t, Options{})
	rec := h.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"courses":2`)
}

func TestSessionRegistry_ExpireRemovesIdle(t *testing.T) {
	r := newSessionRegistry()
	now := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	idle := intelligence.NewConversation(nil)
	idleID := r.add(idle)
	now = now.Add(20 * time.Minute)
	activeID := r.add(intelligence.NewConversation(nil))
	now = now.Add(15 * time.Minute)

	expired := r.expire(30 * time.Minute)
	require.Len(t, expired, 1)
	assert.Same(t, idle, expired[0])
	_, ok := r.get(idleID)
	assert.False(t, ok)
	_, ok = r.get(activeID)
	assert.True(t, ok)

	assert.Len(t, r.drain(), 1)
	assert.Equal(t, 0, r.len())
}
