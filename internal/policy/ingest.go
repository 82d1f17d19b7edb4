package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/aihub/incident-backend-go/internal/logger"
	"github.com/aihub/incident-backend-go/internal/metrics"
)

// ExampleGenerator 为一份策略文档生成示例情景描述（检索锚点）
type ExampleGenerator interface {
	GenerateExamples(ctx context.Context, policyText string) ([]string, error)
}

const exampleGeneratorPrompt = `Your job is to take a policy description and produce a variety of example situations that would tightly and loosely match the policy.`

type policyExamples struct {
	SituationDescriptions []string `json:"situation_descriptions"`
}

// OpenAIExampleGenerator 用结构化输出的chat completion生成示例情景
type OpenAIExampleGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIExampleGenerator 创建示例情景生成器
func NewOpenAIExampleGenerator(apiKey, model string) (*OpenAIExampleGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key not configured")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIExampleGenerator{client: openai.NewClient(apiKey), model: model}, nil
}

func (g *OpenAIExampleGenerator) GenerateExamples(ctx context.Context, policyText string) ([]string, error) {
	schema, err := jsonschema.GenerateSchemaForType(policyExamples{})
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: exampleGeneratorPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Here is the policy:\n" + policyText},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "policy_examples",
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate examples: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("generate examples: empty response")
	}

	var parsed policyExamples
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse examples: %w", err)
	}
	return parsed.SituationDescriptions, nil
}

// IngestSummary 一次入库运行的结果统计
type IngestSummary struct {
	Ingested int
	Skipped  int
	Failed   int
}

// Ingestor 批量入库流水线：每份文档生成示例情景、批量嵌入、原子写入。
// 文档之间相互独立，单个文档失败不影响已提交的文档。
type Ingestor struct {
	store     *Store
	embedder  Embedder
	generator ExampleGenerator
}

// NewIngestor 创建入库流水线
func NewIngestor(store *Store, embedder Embedder, generator ExampleGenerator) *Ingestor {
	return &Ingestor{store: store, embedder: embedder, generator: generator}
}

// Run 处理目录下的全部纯文本策略文档，顺序执行。
// 全文已存在的文档直接跳过，重跑不会重复嵌入已提交的文档。
func (in *Ingestor) Run(ctx context.Context, dir string) (IngestSummary, error) {
	var summary IngestSummary

	entries, err := os.ReadDir(dir)
	if err != nil {
		return summary, fmt.Errorf("read policy directory: %w", err)
	}

	if err := in.store.EnsureSchema(ctx); err != nil {
		return summary, err
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		err := in.ingestDocument(ctx, filepath.Join(dir, name))
		switch {
		case errors.Is(err, errAlreadyIngested):
			logger.Info("policy already ingested, skipping", zap.String("file", name))
			summary.Skipped++
		case err != nil:
			logger.Error("failed to ingest policy document",
				zap.String("file", name),
				zap.Error(err))
			summary.Failed++
		default:
			summary.Ingested++
		}
	}

	return summary, nil
}

var errAlreadyIngested = errors.New("policy already ingested")

func (in *Ingestor) ingestDocument(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	policyText := string(data)
	if strings.TrimSpace(policyText) == "" {
		return errors.New("document is empty")
	}

	exists, err := in.store.HasPolicyText(ctx, policyText)
	if err != nil {
		return err
	}
	if exists {
		return errAlreadyIngested
	}

	descriptions, err := in.generator.GenerateExamples(ctx, policyText)
	if err != nil {
		return err
	}
	if len(descriptions) == 0 {
		return errors.New("generator returned no situation descriptions")
	}

	embeddings, err := in.embedder.EmbedBatch(ctx, descriptions)
	if err != nil {
		return err
	}

	if err := in.store.InsertPolicy(ctx, policyText, descriptions, embeddings); err != nil {
		return err
	}

	metrics.PoliciesIngested.Inc()
	logger.Info("inserted policy",
		zap.String("file", filepath.Base(path)),
		zap.Int("situations", len(descriptions)))
	return nil
}
