package ai

import "context"

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextGenerator produces free text from a single prompt (content-generation
// style endpoint).
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatClient completes a multi-turn conversation (chat-completion style
// endpoint).
type ChatClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
