package chat

import (
	"context"

	domai "github.com/bryanwahyu/healthscan-ai/internal/domain/ai"
)

// Service implements the diagnosis-chat use-case over the chat-completion
// port. Credentials stay behind this server; the browser never talks to the
// provider directly. Conversation validation happens at the HTTP boundary.
type Service struct {
	Client domai.ChatClient
}

func NewService(client domai.ChatClient) *Service {
	return &Service{Client: client}
}

// Respond completes the conversation and returns the assistant's reply.
func (s *Service) Respond(ctx context.Context, messages []domai.Message) (string, error) {
	return s.Client.Complete(ctx, messages)
}
