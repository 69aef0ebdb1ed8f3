package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/healthscan-ai/internal/domain/ai"
)

type stubClient struct {
	got   []domai.Message
	reply string
	err   error
}

func (c *stubClient) Complete(_ context.Context, messages []domai.Message) (string, error) {
	c.got = messages
	return c.reply, c.err
}

func TestRespond(t *testing.T) {
	client := &stubClient{reply: "rest and hydrate"}
	svc := NewService(client)

	reply, err := svc.Respond(context.Background(), []domai.Message{
		{Role: "user", Content: "I have a mild fever"},
	})
	require.NoError(t, err)
	assert.Equal(t, "rest and hydrate", reply)
	require.Len(t, client.got, 1)
	assert.Equal(t, "I have a mild fever", client.got[0].Content)
}

func TestRespondPropagatesClientError(t *testing.T) {
	svc := NewService(&stubClient{err: fmt.Errorf("provider down")})
	_, err := svc.Respond(context.Background(), []domai.Message{
		{Role: "user", Content: "hi"},
	})
	assert.EqualError(t, err, "provider down")
}
