package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/validideahq/valididea/internal/domain/ai"
	"github.com/validideahq/valididea/internal/infra/ai/prompt"
)

const maxTokens = 4096

type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// GenerateReport asks the model for the full feasibility report JSON.
func (c *Client) GenerateReport(ctx context.Context, title, oneLiner, description string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model(),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetReportSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetReportUserPrompt(title, oneLiner, description)},
		},
	}
	setTokenLimit(&req)

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapErr(err)
	}
	return resp.Choices[0].Message.Content, nil
}

// Chat answers a follow-up question grounded in the report JSON.
func (c *Client) Chat(ctx context.Context, reportJSON string, history []domai.Turn, question string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.GetChatSystemPrompt(reportJSON)},
	}
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	req := openai.ChatCompletionRequest{
		Model:    c.model(),
		Messages: messages,
	}
	setTokenLimit(&req)

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapErr(err)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) model() string {
	if c.Model == "" {
		return "gpt-4o-2024-08-06"
	}
	return c.Model
}

// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
func setTokenLimit(req *openai.ChatCompletionRequest) {
	m := req.Model
	if strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}
}

// mapErr translates provider quota/limit responses into the domain sentinel.
func mapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return domai.ErrQuotaExceeded
	}
	return fmt.Errorf("failed to create chat completion: %w", err)
}
