package llm

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codeready-toolchain/parley/pkg/models"
)

// DefaultOpenAIModel is used when neither the request nor the client
// configuration names a model.
const DefaultOpenAIModel = openai.GPT4o

// OpenAIClient implements Client on top of OpenAI's streaming
// chat-completion API. Tool calls arrive as incremental fragments
// keyed by index; they are surfaced as ToolCallDelta chunks and
// assembled by the caller.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed client. baseURL is optional
// and supports OpenAI-compatible endpoints; model is the default model
// used when requests don't name one.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

// Stream implements Client.
func (c *OpenAIClient) Stream(ctx context.Context, req *Request) (<-chan Chunk, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOpenAITools(req.Tools)
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, c.wrapError(err)
	}

	out := make(chan Chunk, chunkBufferSize)
	go func() {
		defer close(out)
		defer stream.Close()

		finish := FinishStop
		var usage *TokenUsage

		for {
			resp, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					out <- End{Reason: finish, Usage: usage}
					return
				}
				if ctx.Err() != nil {
					return
				}
				out <- ErrorChunk{Err: c.wrapError(err)}
				return
			}

			if resp.Usage != nil {
				usage = &TokenUsage{
					InputTokens:  resp.Usage.PromptTokens,
					OutputTokens: resp.Usage.CompletionTokens,
					TotalTokens:  resp.Usage.TotalTokens,
				}
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]

			if choice.Delta.Content != "" {
				out <- TextDelta{Text: choice.Delta.Content}
			}
			for _, tc := range choice.Delta.ToolCalls {
				index := 0
				if tc.Index != nil {
					index = *tc.Index
				}
				out <- ToolCallDelta{
					Index:          index,
					ID:             tc.ID,
					Name:           tc.Function.Name,
					ArgumentsDelta: tc.Function.Arguments,
				}
			}
			switch choice.FinishReason {
			case openai.FinishReasonStop:
				finish = FinishStop
			case openai.FinishReasonToolCalls:
				finish = FinishToolCalls
			case openai.FinishReasonLength:
				finish = FinishLength
			case openai.FinishReasonContentFilter:
				finish = FinishContentFilter
			}
		}
	}()

	return out, nil
}

// Close implements Client. The underlying HTTP client needs no
// explicit teardown.
func (c *OpenAIClient) Close() error { return nil }

func (c *OpenAIClient) wrapError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Category: categoryForStatus(apiErr.HTTPStatusCode),
			Message:  apiErr.Message,
			Err:      err,
		}
	}
	return NewError(categorize(err), err)
}

// toOpenAIMessages converts the uniform message sequence to OpenAI's
// format. Tool results each become a separate role=tool message bound
// to its call id.
func toOpenAIMessages(msgs []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
				Name:       m.ToolName,
			})
		case models.RoleAssistant:
			msg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Content,
			}
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, msg)
		default:
			out = append(out, openai.ChatCompletionMessage{
				Role:    string(m.Role),
				Content: m.Content,
			})
		}
	}
	return out
}

func toOpenAITools(defs []ToolDefinition) []openai.Tool {
	tools := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Schema,
			},
		})
	}
	return tools
}
