package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/aihub/incident-backend-go/internal/logger"
	"github.com/aihub/incident-backend-go/internal/models"
)

const searchToolName = "search_policies"

const incidentSystemPrompt = `You are an incident reporting assistant for a care provider. ` +
	`Use the search_policies tool to find the policies governing the incident in the transcript, ` +
	`then fill out the incident report, draft any appropriate notification emails, and explain ` +
	`how the outputs follow the retrieved policies. Only cite situation ids returned by the tool.`

// OpenAIBackend 基于chat completion工具调用循环的生成后端。
// 只暴露一个工具search_policies，最终输出通过JSON schema强约束。
type OpenAIBackend struct {
	client        *openai.Client
	model         string
	searcher      PolicySearcher
	maxToolRounds int
}

// NewOpenAIBackend 创建OpenAI生成后端
func NewOpenAIBackend(apiKey, model string, searcher PolicySearcher, maxToolRounds int) (*OpenAIBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key not configured")
	}
	if model == "" {
		model = "gpt-4o"
	}
	if maxToolRounds <= 0 {
		maxToolRounds = 8
	}
	return &OpenAIBackend{
		client:        openai.NewClient(apiKey),
		model:         model,
		searcher:      searcher,
		maxToolRounds: maxToolRounds,
	}, nil
}

func searchToolDefinition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name: searchToolName,
			Description: "Search for the associated policy of the incident using a summary " +
				"description of the situation. This will return closely related policies.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"description": {
						Type:        jsonschema.String,
						Description: "A couple sentence summary of the situation used to search.",
					},
				},
				Required: []string{"description"},
			},
		},
	}
}

// Generate 运行工具调用循环直到模型给出最终结构化结果
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (*models.PolicyProcessingResult, error) {
	resultSchema, err := jsonschema.GenerateSchemaForType(models.PolicyProcessingResult{})
	if err != nil {
		return nil, fmt.Errorf("%w: build output schema: %v", ErrGeneration, err)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: incidentSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	for round := 0; round < b.maxToolRounds; round++ {
		resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    b.model,
			Messages: messages,
			Tools:    []openai.Tool{searchToolDefinition()},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "policy_processing_result",
					Schema: resultSchema,
					Strict: true,
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("%w: empty response", ErrGeneration)
		}

		msg := resp.Choices[0].Message
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			var result models.PolicyProcessingResult
			if err := json.Unmarshal([]byte(msg.Content), &result); err != nil {
				return nil, fmt.Errorf("%w: parse structured output: %v", ErrGeneration, err)
			}
			logger.Info("agent processing complete",
				zap.Strings("policy_ids", result.PolicyIDs),
				zap.Int("emails", len(result.Emails)))
			return &result, nil
		}

		for _, call := range msg.ToolCalls {
			content, err := b.dispatchTool(ctx, call)
			if err != nil {
				// 检索失败对整个请求是致命的，残缺的报告比失败更糟
				return nil, err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    content,
			})
		}
	}

	return nil, fmt.Errorf("%w: tool round limit %d reached", ErrGeneration, b.maxToolRounds)
}

func (b *OpenAIBackend) dispatchTool(ctx context.Context, call openai.ToolCall) (string, error) {
	if call.Function.Name != searchToolName {
		// 模型幻觉出的工具名，如实回告让它纠正
		return fmt.Sprintf("unknown tool %q", call.Function.Name), nil
	}

	var args struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return fmt.Sprintf("invalid arguments: %v", err), nil
	}

	logger.Info("agent searching policies",
		zap.String("description", truncate(args.Description, 100)))

	results, err := b.searcher.FindCandidatePolicies(ctx, args.Description)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("%w: marshal tool result: %v", ErrGeneration, err)
	}
	logger.Info("agent found matching policies", zap.Int("count", len(results)))
	return string(payload), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
