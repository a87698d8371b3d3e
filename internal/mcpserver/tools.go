package mcpserver

import (
	"context"
	"fmt"

	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SearchInput struct {
	Query         string `json:"query,omitempty" jsonschema:"course name or reference, e.g. SMSTS"`
	Location      string `json:"location,omitempty" jsonschema:"comma-separated venues or a region such as London"`
	DateStart     string `json:"date_start,omitempty" jsonschema:"earliest start date, YYYY-MM-DD"`
	DateEnd       string `json:"date_end,omitempty" jsonschema:"latest start date, YYYY-MM-DD, inclusive"`
	ExpandRegions bool   `json:"expand_regions,omitempty" jsonschema:"replace region names with their venues before matching"`
}

type SearchOutput struct {
	Courses []domain.CourseProjection `json:"courses"`
	Count   int                       `json:"count"`
	Message string                    `json:"message,omitempty"`
}

type DetailsInput struct {
	CourseType string `json:"course_type" jsonschema:"course acronym or name, e.g. SSSTS or NEBOSH General"`
}

type DetailsOutput struct {
	Key   string `json:"key,omitempty"`
	Text  string `json:"text"`
	Found bool   `json:"found"`
}

type AskInput struct {
	Question string `json:"question" jsonschema:"a course-finder question in natural language"`
}

type AskOutput struct {
	Reply     string   `json:"reply"`
	CourseIDs []int    `json:"course_ids"`
	Options   []string `json:"options,omitempty"`
	Cards     []Card   `json:"cards"`
}

type Card struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Venue string `json:"venue"`
	Price string `json:"price"`
	Link  string `json:"link,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_courses",
		Description: "Search scheduled training courses by name, venue and start-date range. Returns at most 25 sessions.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "course_details",
		Description: "Syllabus, duration and certification notes for a course type",
	}, s.handleDetails)

	if s.ports.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Ask the course-finder assistant a one-off question",
		}, s.handleAsk)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	res, err := s.ports.Courses.Search(ctx, service.SearchQuery{
		SearchCriteria: domain.SearchCriteria{
			Query:     input.Query,
			Location:  input.Location,
			DateStart: input.DateStart,
			DateEnd:   input.DateEnd,
		},
		ExpandRegions: input.ExpandRegions,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Courses: res.Courses, Count: len(res.Courses), Message: res.Message}, nil
}

func (s *Server) handleDetails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DetailsInput,
) (*mcp.CallToolResult, DetailsOutput, error) {
	d := s.ports.Courses.Details(ctx, input.CourseType)
	return nil, DetailsOutput{Key: d.Key, Text: d.Text, Found: d.Found}, nil
}

// handleAsk runs a single-exchange conversation with its own analytics
// session.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	conv, err := s.ports.Chat.Start(ctx, ClientTag)
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("starting conversation: %w", err)
	}
	defer s.ports.Chat.End(context.WithoutCancel(ctx), conv) //nolint:errcheck

	res, err := s.ports.Chat.Send(ctx, conv, input.Question)
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("%s: %w", intelligence.PresentError(err), err)
	}

	out := AskOutput{
		Reply:     res.Reply.Reply,
		CourseIDs: res.Reply.SuggestedCourseIDs,
		Options:   res.Reply.DisambiguationOptions,
		Cards:     make([]Card, len(res.Cards)),
	}
	for i, c := range res.Cards {
		out.Cards[i] = Card{ID: c.ID, Name: c.DisplayName(), Date: c.StartDate, Venue: c.Venue, Price: c.Price, Link: c.Link}
	}
	return nil, out, nil
}
