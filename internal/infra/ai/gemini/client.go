package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-pro"
)

// Wire shapes of the generateContent endpoint.
type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client adapts the content-generation endpoint to the domain TextGenerator
// port. Callers own the fallback policy; this client just reports errors.
type Client struct {
	http  *resty.Client
	key   string
	model string
}

// New with an optional baseURL override (tests point it at a local server).
func New(apiKey, model, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Client{http: hc, key: apiKey, model: model}
}

func (c *Client) Generate(ctx context.Context, promptText string) (string, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: promptText}}}},
	}
	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.key).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return "", fmt.Errorf("generate content: %s (status %d)", out.Error.Message, resp.StatusCode())
		}
		return "", fmt.Errorf("generate content: status %d", resp.StatusCode())
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate content: no candidates in response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
