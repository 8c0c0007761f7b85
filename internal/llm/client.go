package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client returns a JSON document for a prompt.
type Client interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// ErrBlocked is returned when Gemini refuses the prompt or stops the answer
// for safety reasons.
var ErrBlocked = errors.New("response blocked")

// TextClient generates blog and pin copy with a Gemini text model in JSON mode.
type TextClient struct {
	client *genai.Client
	cfg    Config
}

// NewTextClient connects to Gemini with apiKey.
func NewTextClient(ctx context.Context, cfg Config, apiKey string, opts ...option.ClientOption) (*TextClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &TextClient{client: client, cfg: cfg}, nil
}

// GenerateJSON implements Client. Fences and chatter around the document are
// stripped.
func (c *TextClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.cfg.TextModel)
	model.SetTemperature(c.cfg.Temperature)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", c.cfg.TextModel, err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// Close releases the underlying connection.
func (c *TextClient) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("empty response")
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: prompt %s", ErrBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: answer %s", ErrBlocked, cand.FinishReason)
	}
	var b strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text in response (finish reason %s)", cand.FinishReason)
	}
	return b.String(), nil
}
