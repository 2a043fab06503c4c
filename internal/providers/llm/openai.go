package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI is the default completion gateway. A base URL override points it at
// any OpenAI-compatible endpoint without code changes.
type OpenAI struct {
	client *openai.Client
	model  string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(cc), model: model}
}

func (o *OpenAI) Close() error { return nil }

func (o *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            o.model,
		Messages:         msgs,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return Response{}, &StatusError{StatusCode: apiErr.HTTPStatusCode, Err: err}
		}
		return Response{}, err
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("completion returned no choices")
	}

	choice := resp.Choices[0]
	return Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}, nil
}
