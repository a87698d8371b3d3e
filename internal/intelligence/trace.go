package intelligence

// ExchangeState is a step of one user-initiated exchange.
type ExchangeState string

const (
	StateIdle          ExchangeState = "idle"
	StateAwaitingModel ExchangeState = "awaiting_model"
	StateToolRequested ExchangeState = "tool_requested"
	StateToolExecuting ExchangeState = "tool_executing"
	StateValidating    ExchangeState = "validating"
	StateDone          ExchangeState = "done"
	StateFailed        ExchangeState = "failed"
)

// ExchangeTrace is a JSON-serializable record of how a reply was produced.
type ExchangeTrace struct {
	Generation uint64          `json:"generation"`
	States     []ExchangeState `json:"states"`
	ModelCalls int             `json:"model_calls"`
	ToolCalls  []ToolCallTrace `json:"tool_calls,omitempty"`
	Coerced    bool            `json:"coerced"`
	Guarded    bool            `json:"guarded"`
	DroppedIDs []int           `json:"dropped_ids,omitempty"`
	Failure    string          `json:"failure,omitempty"`
}

// ToolCallTrace captures one executed tool call.
type ToolCallTrace struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Results   int    `json:"results"`
	Failed    bool   `json:"failed,omitempty"`
}

func (t *ExchangeTrace) enter(s ExchangeState) {
	t.States = append(t.States, s)
}

// Final returns the last state entered.
func (t ExchangeTrace) Final() ExchangeState {
	if len(t.States) == 0 {
		return StateIdle
	}
	return t.States[len(t.States)-1]
}
