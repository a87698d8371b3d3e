package domain

import (
	"strings"
	"time"
)

type ConversationTurn struct {
	Role                  Role      `json:"role"`
	Text                  string    `json:"text"`
	CourseIDs             []int     `json:"course_ids,omitempty"`
	DisambiguationOptions []string  `json:"disambiguation_options,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
}

// StructuredReply is the final payload of an exchange. All three fields are
// always present on the wire, with empty arrays instead of null.
type StructuredReply struct {
	Reply                 string   `json:"reply"`
	SuggestedCourseIDs    []int    `json:"suggested_course_ids"`
	DisambiguationOptions []string `json:"disambiguation_options"`
}

// TextReply builds a reply that carries no cards and no options.
func TextReply(text string) StructuredReply {
	return StructuredReply{Reply: text, SuggestedCourseIDs: []int{}, DisambiguationOptions: []string{}}
}

// Normalize replaces nil slices with empty ones and trims option strings,
// dropping blanks.
func (r StructuredReply) Normalize() StructuredReply {
	out := StructuredReply{
		Reply:                 strings.TrimSpace(r.Reply),
		SuggestedCourseIDs:    make([]int, 0, len(r.SuggestedCourseIDs)),
		DisambiguationOptions: make([]string, 0, len(r.DisambiguationOptions)),
	}
	out.SuggestedCourseIDs = append(out.SuggestedCourseIDs, r.SuggestedCourseIDs...)
	for _, opt := range r.DisambiguationOptions {
		if opt = strings.TrimSpace(opt); opt != "" {
			out.DisambiguationOptions = append(out.DisambiguationOptions, opt)
		}
	}
	return out
}

// AssistantTurn converts the reply into a transcript entry.
func (r StructuredReply) AssistantTurn(at time.Time) ConversationTurn {
	return ConversationTurn{
		Role:                  RoleAssistant,
		Text:                  r.Reply,
		CourseIDs:             r.SuggestedCourseIDs,
		DisambiguationOptions: r.DisambiguationOptions,
		Timestamp:             at,
	}
}
