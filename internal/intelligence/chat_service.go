package intelligence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/llm"
)

const (
	DefaultHistoryWindow     = 10
	DefaultMaxToolIterations = 4
	DefaultCompanyName       = "Target Zero Training"
)

// SessionTracker owns the analytics session lifecycle of a conversation.
type SessionTracker interface {
	SearchRecorder
	InitSession(ctx context.Context, clientTag string) (*analytics.Session, error)
	Close(ctx context.Context, session *analytics.Session) error
}

// CardResolver turns suggested ids into deduplicated catalog records.
type CardResolver interface {
	KnownIDs(ids []int) []int
	ResolveCards(ids []int) []domain.CourseOffering
}

type ChatConfig struct {
	CompanyName       string
	HistoryWindow     int
	MaxToolIterations int
	Regions           RegionTable
}

func (c ChatConfig) withDefaults() ChatConfig {
	if strings.TrimSpace(c.CompanyName) == "" {
		c.CompanyName = DefaultCompanyName
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = DefaultHistoryWindow
	}
	if c.MaxToolIterations <= 0 {
		c.MaxToolIterations = DefaultMaxToolIterations
	}
	if len(c.Regions.Regions) == 0 && len(c.Regions.Acronyms) == 0 {
		c.Regions = DefaultRegionTable()
	}
	return c
}

// ExchangeResult is a resolved exchange: the reply, the cards to render
// under it and how it was produced.
type ExchangeResult struct {
	Reply domain.StructuredReply  `json:"reply"`
	Cards []domain.CourseOffering `json:"cards"`
	Trace ExchangeTrace           `json:"trace"`
}

// ChatService runs course-finder conversations against a remote model.
type ChatService interface {
	// Start opens a conversation with a fresh analytics session.
	Start(ctx context.Context, clientTag string) (*Conversation, error)

	// Send runs one exchange. Auth, overload and fencing errors are
	// returned; every other failure becomes a presentable reply.
	Send(ctx context.Context, conv *Conversation, input string) (*ExchangeResult, error)

	// Restart clears the transcript and replaces the analytics session.
	// A pending exchange resolves with ErrStaleExchange.
	Restart(ctx context.Context, conv *Conversation, clientTag string) error

	// End closes the conversation's analytics session.
	End(ctx context.Context, conv *Conversation) error
}

type chatService struct {
	client  llm.ChatClient
	tools   *ToolExecutor
	cards   CardResolver
	tracker SessionTracker
	cfg     ChatConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewChatService wires the orchestrator. tracker may be nil, in which case
// conversations carry no analytics session.
func NewChatService(client llm.ChatClient, tools *ToolExecutor, cards CardResolver, tracker SessionTracker, cfg ChatConfig, logger *slog.Logger) ChatService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &chatService{
		client:  client,
		tools:   tools,
		cards:   cards,
		tracker: tracker,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		now:     time.Now,
	}
}

func (s *chatService) Start(ctx context.Context, clientTag string) (*Conversation, error) {
	session, err := s.openSession(ctx, clientTag)
	if err != nil {
		return nil, err
	}
	return NewConversation(session), nil
}

func (s *chatService) Restart(ctx context.Context, conv *Conversation, clientTag string) error {
	if conv == nil {
		return fmt.Errorf("conversation is nil")
	}
	session, err := s.openSession(ctx, clientTag)
	if err != nil {
		return err
	}
	prev := conv.reset(session)
	s.closeSession(ctx, prev)
	s.logger.Info("conversation restarted", "generation", conv.Generation())
	return nil
}

func (s *chatService) End(ctx context.Context, conv *Conversation) error {
	if conv == nil || s.tracker == nil || conv.Session() == nil {
		return nil
	}
	return s.tracker.Close(ctx, conv.Session())
}

func (s *chatService) openSession(ctx context.Context, clientTag string) (*analytics.Session, error) {
	if s.tracker == nil {
		return nil, nil
	}
	session, err := s.tracker.InitSession(ctx, clientTag)
	if err != nil {
		return nil, fmt.Errorf("init analytics session: %w", err)
	}
	return session, nil
}

func (s *chatService) closeSession(ctx context.Context, session *analytics.Session) {
	if s.tracker == nil || session == nil {
		return
	}
	if err := s.tracker.Close(ctx, session); err != nil {
		s.logger.Warn("close analytics session", "session", session.ID, "error", err)
	}
}

func (s *chatService) Send(ctx context.Context, conv *Conversation, input string) (*ExchangeResult, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyMessage
	}

	gen, err := conv.begin()
	if err != nil {
		return nil, err
	}
	defer conv.finish(gen)

	userTurn := domain.ConversationTurn{Role: domain.RoleUser, Text: input, Timestamp: s.now()}
	history := conv.Window(s.cfg.HistoryWindow)

	trace := ExchangeTrace{Generation: gen}
	trace.enter(StateIdle)
	reply, err := s.exchange(ctx, conv.Session(), history, input, &trace)
	if err != nil {
		return nil, err
	}

	assistantTurn := reply.AssistantTurn(s.now())
	if !conv.commit(gen, userTurn, assistantTurn) {
		s.logger.Info("discarding stale exchange", "generation", gen)
		return nil, ErrStaleExchange
	}
	return &ExchangeResult{
		Reply: reply,
		Cards: s.cards.ResolveCards(reply.SuggestedCourseIDs),
		Trace: trace,
	}, nil
}

// exchange drives the model through the tool loop and validation. A non-nil
// error means the caller must see the failure; everything else is folded
// into the reply.
func (s *chatService) exchange(ctx context.Context, session *analytics.Session, history []domain.ConversationTurn, input string, trace *ExchangeTrace) (domain.StructuredReply, error) {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: buildChatSystemPrompt(s.cfg.CompanyName, s.now(), s.cfg.Regions)})
	msgs = append(msgs, historyMessages(history)...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: input})

	tools := chatTools()
	var schema *llm.ResponseSchema
	var resp *llm.ChatResponse
	for iter := 0; ; iter++ {
		s.transition(trace, StateAwaitingModel)
		var err error
		resp, err = s.call(ctx, llm.TaskChat, msgs, tools, schema, trace)
		if err != nil {
			return s.fail(trace, err)
		}
		if len(resp.ToolCalls) == 0 {
			break
		}
		s.transition(trace, StateToolRequested)
		if iter >= s.cfg.MaxToolIterations {
			s.logger.Warn("model kept requesting tools", "iterations", iter, "error", ErrToolLoop)
			return s.fail(trace, ErrToolLoop)
		}

		s.transition(trace, StateToolExecuting)
		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			res := s.tools.Execute(ctx, session, call)
			trace.ToolCalls = append(trace.ToolCalls, ToolCallTrace{
				Name:      call.Name,
				Arguments: call.Arguments,
				Results:   len(res.CourseIDs),
				Failed:    res.Failed,
			})
			msgs = append(msgs, llm.Message{Role: llm.RoleTool, ToolCallID: res.CallID, Name: res.Name, Content: res.Content})
		}
		// After tool output the answer must follow the reply schema.
		schema = replySchema()
	}

	content := resp.Content
	if !llm.LooksLikeJSONObject(content) {
		trace.Coerced = true
		msgs = append(msgs,
			llm.Message{Role: llm.RoleAssistant, Content: content},
			llm.Message{Role: llm.RoleUser, Content: coercionInstruction},
		)
		s.transition(trace, StateAwaitingModel)
		coerced, err := s.call(ctx, llm.TaskCoerce, msgs, nil, replySchema(), trace)
		if err != nil {
			return s.fail(trace, err)
		}
		content = coerced.Content
	}

	s.transition(trace, StateValidating)
	reply, err := llm.ExtractJSON[domain.StructuredReply](content, validateStructuredReply)
	if err != nil {
		return s.fail(trace, err)
	}
	reply = s.validate(reply.Normalize(), trace)

	s.transition(trace, StateDone)
	return reply, nil
}

func (s *chatService) call(ctx context.Context, task llm.TaskType, msgs []llm.Message, tools []llm.ToolDefinition, schema *llm.ResponseSchema, trace *ExchangeTrace) (*llm.ChatResponse, error) {
	trace.ModelCalls++
	resp, err := s.client.Chat(ctx, llm.ChatRequest{
		Task:     task,
		Messages: msgs,
		Tools:    tools,
		Schema:   schema,
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// validate drops ids the catalog does not know, then applies the guard.
func (s *chatService) validate(reply domain.StructuredReply, trace *ExchangeTrace) domain.StructuredReply {
	known := s.cards.KnownIDs(reply.SuggestedCourseIDs)
	if len(known) != len(reply.SuggestedCourseIDs) {
		keep := make(map[int]bool, len(known))
		for _, id := range known {
			keep[id] = true
		}
		for _, id := range reply.SuggestedCourseIDs {
			if !keep[id] {
				trace.DroppedIDs = append(trace.DroppedIDs, id)
			}
		}
		s.logger.Warn("model suggested unknown course ids", "ids", trace.DroppedIDs)
	}
	reply.SuggestedCourseIDs = known

	guarded, replaced := guardReply(reply)
	if replaced {
		trace.Guarded = true
		s.logger.Warn("reply announced courses without ids, replacing")
	}
	return guarded
}

// fail classifies an exchange failure. Auth, disabled, overload and
// cancellation errors are returned; malformed output asks the user to
// rephrase; anything else gets the generic reply.
func (s *chatService) fail(trace *ExchangeTrace, err error) (domain.StructuredReply, error) {
	s.transition(trace, StateFailed)
	trace.Failure = err.Error()
	switch {
	case errors.Is(err, llm.ErrAuth), errors.Is(err, llm.ErrDisabled):
		s.logger.Error("model rejected credentials", "error", err)
		return domain.StructuredReply{}, err
	case errors.Is(err, llm.ErrOverloaded):
		s.logger.Warn("model overloaded", "error", err)
		return domain.StructuredReply{}, err
	case errors.Is(err, context.Canceled):
		return domain.StructuredReply{}, err
	case errors.Is(err, llm.ErrEmptyOutput), errors.Is(err, llm.ErrInvalidOutput):
		s.logger.Warn("unusable model output", "error", err)
		return domain.TextReply(RephraseReply), nil
	default:
		s.logger.Error("exchange failed", "error", err)
		return domain.TextReply(GenericFailureReply), nil
	}
}

func (s *chatService) transition(trace *ExchangeTrace, to ExchangeState) {
	s.logger.Debug("exchange state", "generation", trace.Generation, "from", trace.Final(), "to", to)
	trace.enter(to)
}

func historyMessages(turns []domain.ConversationTurn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Text})
	}
	return out
}

func validateStructuredReply(r domain.StructuredReply) error {
	if strings.TrimSpace(r.Reply) == "" {
		return errors.New("reply is empty")
	}
	return nil
}
