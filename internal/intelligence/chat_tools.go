package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/knowledge"
	"github.com/alexanderramin/coursechat/internal/llm"
	"github.com/alexanderramin/coursechat/internal/search"
)

var searchCoursesParameters = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "The course name, acronym, or reference (e.g. 'SMSTS', 'First Aid', 'Traffic Marshal'). Do not include the city or venue here."},
    "location": {"type": "string", "description": "The city or venue (e.g. 'London', 'Online', 'Chelmsford'). May be a comma-separated list such as 'London, Stratford, Wembley'."},
    "dateStart": {"type": "string", "description": "Start of the date range, YYYY-MM-DD."},
    "dateEnd": {"type": "string", "description": "End of the date range, YYYY-MM-DD. For 'next week' use a 7 day range."}
  }
}`)

var courseDetailsParameters = json.RawMessage(`{
  "type": "object",
  "properties": {
    "courseType": {"type": "string", "description": "The acronym or main name of the course (e.g. 'SMSTS', 'SSSTS')."}
  },
  "required": ["courseType"]
}`)

var structuredReplySchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "reply": {"type": "string", "description": "The text response. Keep it short if courses are found."},
    "suggested_course_ids": {"type": "array", "items": {"type": "integer"}, "description": "Ids of the relevant courses returned by searchCourses."},
    "disambiguation_options": {"type": "array", "items": {"type": "string"}, "description": "Specific course names when the query was broad."}
  },
  "required": ["reply", "suggested_course_ids", "disambiguation_options"],
  "additionalProperties": false
}`)

// chatTools lists the tools declared on every model request.
func chatTools() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        string(domain.ToolSearchCourses),
			Description: "Search for training courses by name, acronym, location or date range. Returns available dates and venues.",
			Parameters:  searchCoursesParameters,
		},
		{
			Name:        string(domain.ToolGetCourseDetails),
			Description: "Get a course's content, syllabus, exam format, prerequisites or what is included. Use for questions like 'What is covered?' or 'Is there an exam?'.",
			Parameters:  courseDetailsParameters,
		},
	}
}

func replySchema() *llm.ResponseSchema {
	return &llm.ResponseSchema{Name: "structured_reply", Schema: structuredReplySchema, Strict: true}
}

// ToolInvocation is a decoded tool call. Exactly one of the pointer fields
// is set.
type ToolInvocation struct {
	ID      string
	Search  *domain.SearchCriteria
	Details *CourseDetailsQuery
}

type CourseDetailsQuery struct {
	CourseType string
}

// Name returns the tool the invocation targets.
func (t ToolInvocation) Name() domain.ToolName {
	if t.Details != nil {
		return domain.ToolGetCourseDetails
	}
	return domain.ToolSearchCourses
}

// DecodeToolCall turns a raw model tool call into a typed invocation.
// Unknown fields are ignored and scalar values are accepted in place of
// strings.
func DecodeToolCall(call llm.ToolCall) (ToolInvocation, error) {
	args, err := decodeArguments(call.Arguments)
	if err != nil {
		return ToolInvocation{}, fmt.Errorf("decode %s arguments: %w", call.Name, err)
	}
	switch domain.ToolName(call.Name) {
	case domain.ToolSearchCourses:
		return ToolInvocation{ID: call.ID, Search: &domain.SearchCriteria{
			Query:     args["query"],
			Location:  args["location"],
			DateStart: args["dateStart"],
			DateEnd:   args["dateEnd"],
		}}, nil
	case domain.ToolGetCourseDetails:
		return ToolInvocation{ID: call.ID, Details: &CourseDetailsQuery{CourseType: args["courseType"]}}, nil
	default:
		return ToolInvocation{}, fmt.Errorf("unknown tool %q", call.Name)
	}
}

func decodeArguments(raw string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = strings.TrimSpace(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			b, _ := json.Marshal(val)
			out[k] = string(b)
		}
	}
	return out, nil
}

// CatalogReader is the read side of the course store the tools need.
type CatalogReader interface {
	All() []domain.CourseOffering
}

// SearchRecorder receives the search intent behind each tool call.
type SearchRecorder interface {
	LogSearch(ctx context.Context, session *analytics.Session, term, period string) error
}

// ToolResult is the outcome of one tool call, ready to send back to the
// model.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	// CourseIDs are the ids a search returned, empty for detail lookups.
	CourseIDs []int
	Failed    bool
}

// ToolExecutor runs decoded tool calls against the catalog and the
// knowledge base.
type ToolExecutor struct {
	catalog  CatalogReader
	engine   *search.Engine
	kb       *knowledge.Base
	recorder SearchRecorder
	logger   *slog.Logger
}

func NewToolExecutor(catalog CatalogReader, engine *search.Engine, kb *knowledge.Base, recorder SearchRecorder, logger *slog.Logger) *ToolExecutor {
	if engine == nil {
		engine = search.NewEngine(search.Options{})
	}
	if kb == nil {
		kb = knowledge.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ToolExecutor{catalog: catalog, engine: engine, kb: kb, recorder: recorder, logger: logger}
}

// Execute runs one raw tool call. Decode failures and unknown tools become
// an error payload for the model rather than a failed exchange.
func (e *ToolExecutor) Execute(ctx context.Context, session *analytics.Session, call llm.ToolCall) ToolResult {
	inv, err := DecodeToolCall(call)
	if err != nil {
		e.logger.Warn("tool call rejected", "tool", call.Name, "error", err)
		return ToolResult{CallID: call.ID, Name: call.Name, Content: errorPayload(err), Failed: true}
	}
	switch {
	case inv.Search != nil:
		return e.searchCourses(ctx, session, inv.ID, *inv.Search)
	default:
		return e.courseDetails(ctx, session, inv.ID, *inv.Details)
	}
}

func (e *ToolExecutor) searchCourses(ctx context.Context, session *analytics.Session, id string, criteria domain.SearchCriteria) ToolResult {
	e.record(ctx, session, domain.CoalesceStr(criteria.Query, domain.DefaultSearchTerm), criteria.Period())

	res := e.engine.Search(e.catalog.All(), criteria)
	e.logger.Debug("searchCourses",
		"query", criteria.Query,
		"location", criteria.Location,
		"date_start", criteria.DateStart,
		"date_end", criteria.DateEnd,
		"results", len(res.Courses))

	payload, err := json.Marshal(res)
	if err != nil {
		return ToolResult{CallID: id, Name: string(domain.ToolSearchCourses), Content: errorPayload(err), Failed: true}
	}
	return ToolResult{
		CallID:    id,
		Name:      string(domain.ToolSearchCourses),
		Content:   string(payload),
		CourseIDs: res.IDs(),
	}
}

func (e *ToolExecutor) courseDetails(ctx context.Context, session *analytics.Session, id string, q CourseDetailsQuery) ToolResult {
	e.record(ctx, session, domain.CoalesceStr(q.CourseType, domain.DefaultSearchTerm), domain.ContentQueryPeriod)

	text, key := e.kb.Resolve(q.CourseType)
	e.logger.Debug("getCourseDetails", "course_type", q.CourseType, "matched", key)

	payload, _ := json.Marshal(map[string]string{"result": text})
	return ToolResult{CallID: id, Name: string(domain.ToolGetCourseDetails), Content: string(payload)}
}

func (e *ToolExecutor) record(ctx context.Context, session *analytics.Session, term, period string) {
	if e.recorder == nil || session == nil {
		return
	}
	if err := e.recorder.LogSearch(ctx, session, term, period); err != nil {
		e.logger.Warn("record search intent", "session", session.ID, "error", err)
	}
}

func errorPayload(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}
