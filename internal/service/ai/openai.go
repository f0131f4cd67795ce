package ai

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
)

// DefaultOpenAIBaseURL is the public chat completions endpoint root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAICompleter calls an OpenAI compatible chat completions endpoint.
type OpenAICompleter struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenAICompleter returns a completer for baseURL. A nil client uses the
// SDK default.
func NewOpenAICompleter(baseURL string, httpClient *http.Client) *OpenAICompleter {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAICompleter{baseURL: baseURL, httpClient: httpClient}
}

// Complete issues a single request. Retries are disabled so a failure is
// reported after one attempt.
func (c *OpenAICompleter) Complete(ctx context.Context, apiKey string, req Request) (string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, toOpenAIParams(req))
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &RemoteCallError{Message: ErrEmptyResponse.Error(), Err: ErrEmptyResponse}
	}

	log.Printf("[ai] openai completion model=%s messages=%d", req.Model, len(req.Messages))
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIParams(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		params.Messages = append(params.Messages, toOpenAIMessage(m))
	}

	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}
	if req.MaxCompletionTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxCompletionTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	return params
}

func toOpenAIMessage(m RequestMessage) openai.ChatCompletionMessageParamUnion {
	if m.Role == chat.RoleAssistant {
		return openai.AssistantMessage(m.Content.DisplayText())
	}
	if !m.Content.IsStructured() {
		return openai.UserMessage(m.Content.Text)
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Content.Parts))
	for _, part := range m.Content.Parts {
		switch part.Type {
		case chat.PartText:
			parts = append(parts, openai.TextContentPart(part.Text))
		case chat.PartImage:
			if part.ImageURL == nil {
				continue
			}
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: part.ImageURL.URL,
			}))
		}
	}
	return openai.UserMessage(parts)
}

func openAIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &RemoteCallError{Status: apierr.StatusCode, Message: apierr.Message, Err: err}
	}
	return &RemoteCallError{Message: err.Error(), Err: err}
}
