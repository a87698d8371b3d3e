package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "coursechat://"

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "catalog",
		Name:        "catalog",
		Description: "Every upcoming course session in compact form",
		MIMEType:    "application/json",
	}, s.handleCatalogResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "courses/{id}",
		Name:        "course",
		Description: "Full record of one course session",
		MIMEType:    "application/json",
	}, s.handleCourseResource)
}

func (s *Server) handleCatalogResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	courses := s.ports.Courses.List(ctx)
	out := make([]domain.CourseProjection, len(courses))
	for i, c := range courses {
		out[i] = c.Project()
	}
	return jsonResource(req.Params.URI, out)
}

type courseRecord struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Dates     string `json:"dates,omitempty"`
	Venue     string `json:"venue"`
	Price     string `json:"price"`
	Spaces    string `json:"spaces,omitempty"`
	Link      string `json:"link,omitempty"`
}

func (s *Server) handleCourseResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, ok := extractCourseID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	c, ok := s.ports.Courses.Get(ctx, id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, courseRecord{
		ID:        c.ID,
		Name:      c.DisplayName(),
		Reference: c.Reference,
		StartDate: c.StartDate,
		StartTime: c.StartTime,
		EndDate:   c.EndDate,
		Dates:     c.DatesList,
		Venue:     c.Venue,
		Price:     c.Price,
		Spaces:    c.AvailableSpaces,
		Link:      c.Link,
	})
}

// extractCourseID parses coursechat://courses/{id}.
func extractCourseID(uri string) (int, bool) {
	rest, ok := strings.CutPrefix(uri, uriScheme+"courses/")
	if !ok || rest == "" {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
