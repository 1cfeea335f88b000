package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/logging"
	"github.com/TWRT/taskflow/internal/models"
	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultModel = "gpt-4o-mini"

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient is the language-model gateway backed by the chat
// completions API. It never retries; callers decide what a failure means.
type OpenAIClient struct {
	client sdk.Client
	model  string
	logger *log.Logger
}

func NewOpenAIClient(cfg Config, logger *log.Logger) *OpenAIClient {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client: sdk.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, req client.GenerateRequest) (client.Resolution, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.model),
		Messages: buildMessages(req),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
		params.ParallelToolCalls = sdk.Bool(false)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("chat completion (openai): status %d: %w: %w", apiErr.StatusCode, client.ErrGatewayUnavailable, err)
		}
		return nil, fmt.Errorf("chat completion (openai): %w: %w", client.ErrGatewayUnavailable, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion (openai): no choices: %w", client.ErrGatewayUnavailable)
	}

	message := completion.Choices[0].Message
	if len(message.ToolCalls) > 0 {
		if len(message.ToolCalls) > 1 {
			logging.Warn(c.logger, "extra_tool_calls_ignored", map[string]any{"count": len(message.ToolCalls) - 1})
		}
		call := message.ToolCalls[0]
		return client.ToolCall{
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		}, nil
	}

	return client.Answer{Text: message.Content}, nil
}

func buildMessages(req client.GenerateRequest) []sdk.ChatCompletionMessageParamUnion {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, sdk.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		if turn.Role == models.RoleAssistant {
			messages = append(messages, sdk.AssistantMessage(turn.Content))
			continue
		}
		messages = append(messages, sdk.UserMessage(turn.Content))
	}
	messages = append(messages, sdk.UserMessage(req.Prompt))
	return messages
}

func buildTools(specs []client.ToolSpec) []sdk.ChatCompletionToolUnionParam {
	tools := make([]sdk.ChatCompletionToolUnionParam, len(specs))
	for i, spec := range specs {
		tools[i] = sdk.ChatCompletionFunctionTool(sdk.FunctionDefinitionParam{
			Name:        spec.Name,
			Description: sdk.String(spec.Description),
			Parameters:  sdk.FunctionParameters(spec.Parameters),
		})
	}
	return tools
}
