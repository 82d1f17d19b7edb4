package agent

import (
	"context"
	"errors"

	"github.com/aihub/incident-backend-go/internal/models"
	"github.com/aihub/incident-backend-go/internal/policy"
)

// ErrGeneration 生成服务失败（上游错误、输出无法解析、工具轮次耗尽）
var ErrGeneration = errors.New("generation service failure")

// Backend 生成后端抽象。具体的大模型供应商实现以依赖方式注入，
// 唯一契约：给定提示词，返回结构化的处理结果。
type Backend interface {
	Generate(ctx context.Context, prompt string) (*models.PolicyProcessingResult, error)
}

// PolicySearcher 是生成步骤观察策略库的唯一途径
type PolicySearcher interface {
	FindCandidatePolicies(ctx context.Context, description string) ([]policy.SearchResult, error)
}
