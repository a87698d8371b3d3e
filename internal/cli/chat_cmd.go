package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alexanderramin/coursechat/internal/cli/formatter"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the course assistant",
		Long: `Starts an interactive conversation. Type a question and press Enter.

  /restart    start over with a fresh conversation
  /open <n>   open the booking link of card n from the last reply
  /quit       leave (Esc and Ctrl+C work too)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if plain || !app.interactive() {
				return runLineChat(cmd, app)
			}
			return runChat(cmd, app)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "use a line-based prompt instead of the full-screen view")
	return cmd
}

func runChat(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	conv, err := app.Chat.Start(ctx, ClientTag)
	if err != nil {
		return fmt.Errorf("starting conversation: %w", err)
	}
	m := newChatModel(ctx, app, conv)

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithAltScreen(),
	)
	_, runErr := p.Run()

	// Restart may have swapped the session, so end whatever is current now.
	if err := app.Chat.End(context.WithoutCancel(ctx), m.conv); err != nil {
		app.logger().Warn("closing analytics session failed", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("chat: %w", runErr)
	}
	return nil
}

// chatCommand is a parsed slash command.
type chatCommand struct {
	name string
	arg  string
}

func parseChatCommand(line string) (chatCommand, bool) {
	if !strings.HasPrefix(line, "/") {
		return chatCommand{}, false
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	return chatCommand{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

// pickOption maps a lone option letter ("a", "B") onto the matching
// clarification choice of the last reply.
func pickOption(line string, options []string) (string, bool) {
	if len(line) != 1 || len(options) == 0 {
		return "", false
	}
	i := int(strings.ToLower(line)[0]) - 'a'
	if i < 0 || i >= len(options) {
		return "", false
	}
	return options[i], true
}

// openCard opens card n (1-based) and records the conversion against the
// conversation's current analytics session. It returns the line to show.
func openCard(ctx context.Context, app *App, conv *intelligence.Conversation, cards []domain.CourseOffering, arg string) string {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(cards) {
		if len(cards) == 0 {
			return formatter.FormatNotice("There are no course cards to open yet.")
		}
		return formatter.FormatNotice(fmt.Sprintf("Pick a card between 1 and %d, e.g. /open 1.", len(cards)))
	}
	card := cards[n-1]
	if card.Link == "" {
		return formatter.FormatNotice(card.DisplayName() + " has no booking link.")
	}
	if app.Analytics != nil {
		if err := app.Analytics.RecordConversion(ctx, conv.Session(), card.DisplayName()); err != nil {
			app.logger().Warn("recording conversion failed", "course", card.DisplayName(), "error", err)
		}
	}
	if app.OpenURL != nil {
		if err := app.OpenURL(card.Link); err != nil {
			return formatter.FormatNotice(fmt.Sprintf("Could not open the browser, book here: %s", card.Link))
		}
		return formatter.Dim("Opened " + card.Link)
	}
	return "Book here: " + card.Link
}

// ── full-screen model ────────────────────────────────────────────────────────

type chatReplyMsg struct {
	generation uint64
	result     *intelligence.ExchangeResult
	err        error
}

type chatModel struct {
	ctx  context.Context
	app  *App
	conv *intelligence.Conversation

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	transcript []string
	cards      []domain.CourseOffering
	options    []string
	waiting    bool
}

func newChatModel(ctx context.Context, app *App, conv *intelligence.Conversation) *chatModel {
	ti := textinput.New()
	ti.Placeholder = "e.g. SMSTS courses in London next month"
	ti.Prompt = formatter.StylePurple.Render("> ")
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(formatter.StylePurple),
	)

	m := &chatModel{
		ctx:     ctx,
		app:     app,
		conv:    conv,
		input:   ti,
		spinner: sp,
	}
	m.resetTranscript()
	return m
}

func (m *chatModel) resetTranscript() {
	m.transcript = []string{formatter.FormatChatWelcome(m.app.Config.Chat.CompanyName)}
	m.cards = nil
	m.options = nil
	m.refresh()
}

func (m *chatModel) appendBlock(s string) {
	m.transcript = append(m.transcript, strings.TrimRight(s, "\n"))
	m.refresh()
}

func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// header, status and prompt lines
		height := max(msg.Height-4, 3)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			return m, m.submit(line)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case chatReplyMsg:
		m.receive(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) submit(line string) tea.Cmd {
	if line == "" {
		return nil
	}
	if c, ok := parseChatCommand(line); ok {
		switch c.name {
		case "quit", "exit", "q":
			return tea.Quit
		case "restart", "new":
			if err := m.app.Chat.Restart(m.ctx, m.conv, ClientTag); err != nil {
				m.appendBlock(formatter.FormatFailure("Could not restart: " + err.Error()))
				return nil
			}
			m.waiting = false
			m.resetTranscript()
			m.appendBlock(formatter.Dim("Started a new conversation."))
			return nil
		case "open":
			m.appendBlock(openCard(m.ctx, m.app, m.conv, m.cards, c.arg))
			return nil
		default:
			m.appendBlock(formatter.FormatNotice("Unknown command /" + c.name + ". Try /restart, /open <n> or /quit."))
			return nil
		}
	}

	if m.waiting {
		m.appendBlock(formatter.FormatNotice(intelligence.InFlightMessage))
		return nil
	}
	if opt, ok := pickOption(line, m.options); ok {
		line = opt
	}

	m.appendBlock(formatter.FormatUserLine(line))
	m.waiting = true
	return tea.Batch(m.send(line), m.spinner.Tick)
}

func (m *chatModel) send(line string) tea.Cmd {
	ctx, chat, conv := m.ctx, m.app.Chat, m.conv
	gen := conv.Generation()
	return func() tea.Msg {
		res, err := chat.Send(ctx, conv, line)
		return chatReplyMsg{generation: gen, result: res, err: err}
	}
}

func (m *chatModel) receive(msg chatReplyMsg) {
	// Replies from before a restart belong to a transcript that is gone.
	if msg.generation != m.conv.Generation() || errors.Is(msg.err, intelligence.ErrStaleExchange) {
		return
	}
	m.waiting = false
	if msg.err != nil {
		m.app.logger().Warn("chat exchange failed", "error", msg.err)
		m.appendBlock(formatter.FormatFailure(intelligence.PresentError(msg.err)))
		return
	}
	res := msg.result
	m.appendBlock(formatter.FormatReply(res.Reply, res.Cards, m.app.now()))
	if len(res.Cards) > 0 {
		m.cards = res.Cards
	}
	m.options = res.Reply.DisambiguationOptions
}

func (m *chatModel) View() string {
	var b strings.Builder
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(strings.Join(m.transcript, "\n\n"))
	}
	b.WriteString("\n")
	if m.waiting {
		b.WriteString(m.spinner.View() + formatter.Dim(" Thinking..."))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(formatter.Dim("enter send · pgup/pgdn scroll · esc quit"))
	return b.String()
}

// ── line mode ────────────────────────────────────────────────────────────────

// runLineChat is the fallback for pipes and dumb terminals: one prompt per
// line, replies printed as they arrive.
func runLineChat(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	conv, err := app.Chat.Start(ctx, ClientTag)
	if err != nil {
		return fmt.Errorf("starting conversation: %w", err)
	}
	defer func() {
		if err := app.Chat.End(context.WithoutCancel(ctx), conv); err != nil {
			app.logger().Warn("closing analytics session failed", "error", err)
		}
	}()

	fmt.Fprintln(out, formatter.FormatChatWelcome(app.Config.Chat.CompanyName))
	var (
		cards   []domain.CourseOffering
		options []string
	)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if c, ok := parseChatCommand(line); ok {
			switch c.name {
			case "quit", "exit", "q":
				return nil
			case "restart", "new":
				if err := app.Chat.Restart(ctx, conv, ClientTag); err != nil {
					fmt.Fprintln(out, formatter.FormatFailure("Could not restart: "+err.Error()))
					continue
				}
				cards, options = nil, nil
				fmt.Fprintln(out, formatter.Dim("Started a new conversation."))
			case "open":
				fmt.Fprintln(out, openCard(ctx, app, conv, cards, c.arg))
			default:
				fmt.Fprintln(out, formatter.FormatNotice("Unknown command /"+c.name+"."))
			}
			continue
		}
		if opt, ok := pickOption(line, options); ok {
			line = opt
		}

		res, err := app.Chat.Send(ctx, conv, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			app.logger().Warn("chat exchange failed", "error", err)
			fmt.Fprintln(out, formatter.FormatFailure(intelligence.PresentError(err)))
			continue
		}
		writeReply(out, app, res)
		if len(res.Cards) > 0 {
			cards = res.Cards
		}
		options = res.Reply.DisambiguationOptions
	}
}

func writeReply(w io.Writer, app *App, res *intelligence.ExchangeResult) {
	fmt.Fprintln(w, strings.TrimRight(formatter.FormatReply(res.Reply, res.Cards, app.now()), "\n"))
}
