package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
)

// DefaultArkBaseURL and DefaultArkRegion address the public Ark endpoint.
const (
	DefaultArkBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultArkRegion  = "cn-beijing"
)

// ChatModelFactory builds an eino chat model for one call.
type ChatModelFactory func(ctx context.Context, cfg *ark.ChatModelConfig) (model.BaseChatModel, error)

// ArkCompleter runs completions through an eino Ark chat model.
type ArkCompleter struct {
	baseURL  string
	region   string
	newModel ChatModelFactory
}

// NewArkCompleter returns a completer for the given Ark endpoint.
func NewArkCompleter(baseURL, region string) *ArkCompleter {
	if baseURL == "" {
		baseURL = DefaultArkBaseURL
	}
	if region == "" {
		region = DefaultArkRegion
	}
	return &ArkCompleter{
		baseURL: baseURL,
		region:  region,
		newModel: func(ctx context.Context, cfg *ark.ChatModelConfig) (model.BaseChatModel, error) {
			cm, err := ark.NewChatModel(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return cm, nil
		},
	}
}

// WithModelFactory swaps the chat model constructor.
func (c *ArkCompleter) WithModelFactory(factory ChatModelFactory) *ArkCompleter {
	c.newModel = factory
	return c
}

// Complete runs one Generate call. Ark has a single output token cap, so
// both token fields of the request map onto it.
func (c *ArkCompleter) Complete(ctx context.Context, apiKey string, req Request) (string, error) {
	cm, err := c.newModel(ctx, &ark.ChatModelConfig{
		BaseURL: c.baseURL,
		Region:  c.region,
		APIKey:  apiKey,
		Model:   req.Model,
	})
	if err != nil {
		return "", &RemoteCallError{Message: fmt.Sprintf("failed to create chat model: %v", err), Err: err}
	}

	var opts []model.Option
	switch {
	case req.MaxCompletionTokens != nil:
		opts = append(opts, model.WithMaxTokens(*req.MaxCompletionTokens))
	case req.MaxTokens != nil:
		opts = append(opts, model.WithMaxTokens(*req.MaxTokens))
	}
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(float32(*req.Temperature)))
	}

	resp, err := cm.Generate(ctx, toSchemaMessages(req.Messages), opts...)
	if err != nil {
		return "", &RemoteCallError{Message: err.Error(), Err: err}
	}
	if resp == nil {
		return "", &RemoteCallError{Message: ErrEmptyResponse.Error(), Err: ErrEmptyResponse}
	}

	log.Printf("[ai] ark completion model=%s messages=%d length=%d", req.Model, len(req.Messages), len(resp.Content))
	return resp.Content, nil
}

func toSchemaMessages(messages []RequestMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == chat.RoleAssistant {
			out = append(out, schema.AssistantMessage(m.Content.DisplayText(), nil))
			continue
		}
		if !m.Content.IsStructured() {
			out = append(out, schema.UserMessage(m.Content.Text))
			continue
		}

		msg := &schema.Message{Role: schema.User}
		for _, part := range m.Content.Parts {
			switch part.Type {
			case chat.PartText:
				msg.MultiContent = append(msg.MultiContent, schema.ChatMessagePart{
					Type: schema.ChatMessagePartTypeText,
					Text: part.Text,
				})
			case chat.PartImage:
				if part.ImageURL == nil {
					continue
				}
				msg.MultiContent = append(msg.MultiContent, schema.ChatMessagePart{
					Type:     schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{URL: part.ImageURL.URL},
				})
			}
		}
		out = append(out, msg)
	}
	return out
}
