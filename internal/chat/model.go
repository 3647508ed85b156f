package chat

import "context"

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
)

// Param describes one argument of a tool.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// ToolSpec is a function the model may ask the agent to call.
type ToolSpec struct {
	Name        string
	Description string
	Params      []Param
}

// ToolCall is the model's request to run a tool.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Turn is one request to the model.  On the first pass Call is nil and the
// model may answer with text or a ToolCall.  On the second pass Call and
// Result carry what was executed, and the model is expected to answer in
// prose.
type Turn struct {
	System  string
	History []Message
	Prompt  string
	Tools   []ToolSpec
	Call    *ToolCall
	Result  map[string]any
}

// Reply is the model's answer to a Turn.
type Reply struct {
	Text string
	Call *ToolCall
}

// Model is a function-calling language model.
type Model interface {
	Complete(ctx context.Context, turn Turn) (*Reply, error)
}
