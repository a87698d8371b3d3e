package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
)

func FormatChatWelcome(company string) string {
	return StyleHeader.Render(company+" course finder") + "\n" +
		Dim("Ask about courses, dates and venues. /restart clears the chat, /open <n> opens a booking link, /quit exits.")
}

func FormatUserLine(text string) string {
	return StyleBlue.Render("You: ") + text
}

// FormatReply renders an assistant reply with its cards and any
// clarification options.
func FormatReply(reply domain.StructuredReply, cards []domain.CourseOffering, now time.Time) string {
	var b strings.Builder
	b.WriteString(StyleGreen.Render("Assistant: "))
	b.WriteString(reply.Reply)
	b.WriteString("\n")

	if len(cards) > 0 {
		b.WriteString("\n")
		b.WriteString(Indent(FormatCourseCards(cards, now), "  "))
	}
	if len(reply.DisambiguationOptions) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatOptions(reply.DisambiguationOptions))
	}
	return b.String()
}

// FormatOptions lists the clarification choices the assistant offered.
func FormatOptions(options []string) string {
	var b strings.Builder
	b.WriteString(Dim("  Did you mean:"))
	b.WriteString("\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "    %s %s\n", StylePurple.Render(fmt.Sprintf("%c)", 'a'+i)), opt)
	}
	return b.String()
}

func FormatNotice(text string) string {
	return StyleYellow.Render("! ") + text
}

func FormatFailure(text string) string {
	return StyleRed.Render("✖ ") + text
}
