package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Function struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

type Tool struct {
	Type     string
	Function Function
}

// FunctionCall is a tool invocation requested by the model. Arguments is nil
// when the raw argument payload was not valid JSON.
type FunctionCall struct {
	Name      string
	Arguments map[string]interface{}
}

type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ToolCalls        []ToolCall
}

// Client abstracts a chat-completion backend. GenerateWithTools offers the
// given tools to the model; a non-empty forceTool constrains the model to
// invoke exactly that tool.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
	GenerateWithTools(ctx context.Context, messages []Message, tools []Tool, forceTool string) (Response, error)
}
