package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aihub/incident-backend-go/internal/agent"
	"github.com/aihub/incident-backend-go/internal/logger"
	"github.com/aihub/incident-backend-go/internal/models"
)

// PolicyResolver 把策略ID展开为全文的能力，由policy.Resolver实现
type PolicyResolver interface {
	Resolve(ctx context.Context, ids []string) ([]string, error)
}

// TranscriptProcessor 供HTTP层调用的处理入口
type TranscriptProcessor interface {
	ProcessTranscript(ctx context.Context, textareaText, fileText string) (*models.PolicyProcessingResultWithFullPolicy, error)
}

// ReportService 事故报告服务：组装提示词、调用生成后端、
// 校验结构化输出、把引用的策略ID展开为全文
type ReportService struct {
	backend  agent.Backend
	resolver PolicyResolver
	validate *validator.Validate
	now      func() time.Time
}

// NewReportService 创建事故报告服务
func NewReportService(backend agent.Backend, resolver PolicyResolver) *ReportService {
	return &ReportService{
		backend:  backend,
		resolver: resolver,
		validate: validator.New(),
		now:      time.Now,
	}
}

// ProcessTranscript 处理一份事故转录，返回报告、邮件草稿和引用策略全文
func (s *ReportService) ProcessTranscript(ctx context.Context, textareaText, fileText string) (*models.PolicyProcessingResultWithFullPolicy, error) {
	prompt := buildPrompt(s.now(), textareaText, fileText)

	result, err := s.backend.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	// 模型输出先过结构校验，残缺的报告比失败的请求更糟
	if err := s.validate.Struct(result); err != nil {
		return nil, fmt.Errorf("%w: structured output failed validation: %v", agent.ErrGeneration, err)
	}

	fullTexts := []string{}
	if len(result.PolicyIDs) == 0 {
		logger.Warn("no policy ids returned from generation")
	} else {
		fullTexts, err = s.resolver.Resolve(ctx, result.PolicyIDs)
		if err != nil {
			return nil, err
		}
		logger.Info("resolved cited policies",
			zap.Strings("policy_ids", result.PolicyIDs),
			zap.Int("unique_policies", len(fullTexts)))
	}

	return &models.PolicyProcessingResultWithFullPolicy{
		PolicyProcessingResult: *result,
		FullPolicyTexts:        fullTexts,
	}, nil
}

func buildPrompt(now time.Time, textareaText, fileText string) string {
	parts := []string{
		fmt.Sprintf("Current date and time: %s\n", now.Format(time.RFC3339)),
		"Please find the associated policy using a summary description of the situation in this transcript and return the incident response form. Please fill out the incident report and draft any appropriate emails\n",
	}

	switch {
	case textareaText != "" && fileText != "":
		parts = append(parts,
			fmt.Sprintf("Transcript from text area:\n%s\n", textareaText),
			fmt.Sprintf("Transcript from uploaded file:\n%s", fileText))
	case fileText != "":
		parts = append(parts, fmt.Sprintf("Transcript: %s", fileText))
	default:
		parts = append(parts, fmt.Sprintf("Transcript: %s", textareaText))
	}

	return strings.Join(parts, "\n")
}
