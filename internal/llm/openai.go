package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAISampler calls the OpenAI Chat Completions API.
type OpenAISampler struct {
	model  openai.ChatModel
	client *openai.Client
}

const (
	defaultChatTimeout = 120 * time.Second

	// Sampling temperature stays at the API default so the response spread
	// reflects the model's own output distribution rather than a flattened
	// or sharpened one.
	samplingTemperature = 1.0
)

// NewOpenAISampler builds a sampler with defaults against api.openai.com.
func NewOpenAISampler(apiKey string, model openai.ChatModel) (*OpenAISampler, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAISampler{
		model:  model,
		client: &cli,
	}, nil
}

// Sample requests n completions for the prompt in a single call.
func (s *OpenAISampler) Sample(ctx context.Context, prompt string, n int) ([]string, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("nil openai sampler")
	}
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	resp, err := s.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(samplingTemperature),
		N:           openai.Int(int64(n)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat: no choices returned")
	}

	responses := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		responses = append(responses, choice.Message.Content)
	}
	return responses, nil
}
