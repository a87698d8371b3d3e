// Package mcpserver exposes the course catalog tools over the Model Context
// Protocol, on stdio or streamable HTTP.
package mcpserver

import (
	"errors"

	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/service"
)

var ErrMissingCourseService = errors.New("mcpserver: course service is required")

// Ports are the services the MCP tools drive. Chat is optional; without it
// the ask tool is not registered.
type Ports struct {
	Courses service.CourseService
	Chat    intelligence.ChatService
}

func (p *Ports) Validate() error {
	if p.Courses == nil {
		return ErrMissingCourseService
	}
	return nil
}
