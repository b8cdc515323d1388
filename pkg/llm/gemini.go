package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/codeready-toolchain/parley/pkg/models"
)

// DefaultGeminiModel is used when neither the request nor the client
// configuration names a model.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient implements Client on top of the Google GenAI SDK.
// Gemini delivers tool calls as complete function-call parts rather
// than fragments, and omits call ids; ids are synthesized here so the
// rest of the system sees the uniform shape.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Stream implements Client.
func (c *GeminiClient) Stream(ctx context.Context, req *Request) (<-chan Chunk, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents, system := toGeminiContents(req.Messages)
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:   int32(req.MaxTokens),
	}
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	out := make(chan Chunk, chunkBufferSize)
	go func() {
		defer close(out)

		finish := FinishStop
		sawToolCalls := false
		callIndex := 0
		var usage *TokenUsage

		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				out <- ErrorChunk{Err: NewError(categorize(err), err)}
				return
			}
			if resp.UsageMetadata != nil {
				usage = &TokenUsage{
					InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
					OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
					TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
				}
			}
			for _, candidate := range resp.Candidates {
				switch candidate.FinishReason {
				case genai.FinishReasonMaxTokens:
					finish = FinishLength
				case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
					finish = FinishContentFilter
				}
				if candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					if part.Text != "" && !part.Thought {
						out <- TextDelta{Text: part.Text}
					}
					if part.FunctionCall != nil {
						args, merr := json.Marshal(part.FunctionCall.Args)
						if merr != nil {
							args = []byte("{}")
						}
						id := part.FunctionCall.ID
						if id == "" {
							id = "call_" + uuid.NewString()
						}
						out <- ToolCallDelta{
							Index:          callIndex,
							ID:             id,
							Name:           part.FunctionCall.Name,
							ArgumentsDelta: string(args),
						}
						callIndex++
						sawToolCalls = true
					}
				}
			}
		}

		if sawToolCalls && finish == FinishStop {
			finish = FinishToolCalls
		}
		out <- End{Reason: finish, Usage: usage}
	}()

	return out, nil
}

// Close implements Client.
func (c *GeminiClient) Close() error { return nil }

// toGeminiContents converts the uniform message sequence to Gemini's
// content format. The system message becomes the SystemInstruction;
// tool results become function-response parts; assistant tool calls
// are echoed back as function-call parts, which Gemini requires before
// their responses.
func toGeminiContents(msgs []models.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content

	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			system = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		case models.RoleTool:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       m.ToolCallID,
						Name:     m.ToolName,
						Response: map[string]any{"result": m.Content},
					},
				}},
			})
		case models.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: args,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	return contents, system
}

func toGeminiTools(defs []ToolDefinition) []*genai.Tool {
	fds := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		var schema genai.Schema
		if err := json.Unmarshal(d.Schema, &schema); err == nil {
			fd.Parameters = &schema
		}
		fds = append(fds, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: fds}}
}
