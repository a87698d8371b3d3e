package intelligence

import (
	"strings"

	"github.com/alexanderramin/coursechat/internal/domain"
)

// announcementPhrases are openings that promise cards to follow.
var announcementPhrases = []string{
	"i found the following",
	"here are the",
	"these courses",
}

// guardReply replaces a reply that announces results when no course ids
// survived validation. It reports whether the reply was replaced.
func guardReply(r domain.StructuredReply) (domain.StructuredReply, bool) {
	if len(r.SuggestedCourseIDs) > 0 || !announcesResults(r.Reply) {
		return r, false
	}
	r.Reply = NeutralNoMatchReply
	return r, true
}

func announcesResults(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range announcementPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
