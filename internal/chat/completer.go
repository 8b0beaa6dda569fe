package chat

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of the conversation history sent to a completion service.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries prior turns and the new utterance separately so
// that request/response services can keep their own wire shape.
type CompletionRequest struct {
	System    []string
	History   []Turn
	Message   string
	MaxTokens int32
}

// Messages flattens history and the new utterance into a single ordered list.
func (r CompletionRequest) Messages() []Turn {
	out := make([]Turn, 0, len(r.History)+1)
	out = append(out, r.History...)
	return append(out, Turn{Role: RoleUser, Content: r.Message})
}

// Completer is an external AI completion service.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

const systemPrompt = `You are the Florida Service AI Assistant for a home-services lead network.
Help homeowners describe their roofing, AC/HVAC, plumbing, electrical, pool, hurricane-prep or other
home service need, and encourage them to share their name, phone and project details so a licensed
local contractor can call them. The service is free for homeowners. Keep replies under 80 words.`

const awayPrompt = `The dispatch team is currently away. If the visitor has an emergency, say that a
person may take longer than usual to call back and collect their location and problem.`
