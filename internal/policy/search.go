package policy

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aihub/incident-backend-go/internal/logger"
	"github.com/aihub/incident-backend-go/internal/metrics"
)

// SituationSearcher 近邻检索能力，由Store实现
type SituationSearcher interface {
	KNNSearch(ctx context.Context, query []float32, k int) ([]SearchResult, error)
}

// SearchService 组合嵌入生成与近邻检索，是暴露给生成代理的唯一检索入口
type SearchService struct {
	embedder Embedder
	store    SituationSearcher
	k        int
}

// NewSearchService 创建检索服务，k是去重前的近邻数量
func NewSearchService(embedder Embedder, store SituationSearcher, k int) *SearchService {
	if k <= 0 {
		k = 10
	}
	return &SearchService{embedder: embedder, store: store, k: k}
}

// FindCandidatePolicies 根据情景描述返回去重后的候选策略，按距离升序。
// 空白描述直接返回空列表，不调用嵌入服务。
func (s *SearchService) FindCandidatePolicies(ctx context.Context, description string) ([]SearchResult, error) {
	if strings.TrimSpace(description) == "" {
		logger.Warn("empty description provided to policy search")
		return []SearchResult{}, nil
	}

	timer := prometheus.NewTimer(metrics.PolicySearchDuration)
	defer timer.ObserveDuration()

	queryVec, err := s.embedder.Embed(ctx, description)
	if err != nil {
		logger.Error("failed to embed search description", zap.Error(err))
		return nil, err
	}

	hits, err := s.store.KNNSearch(ctx, queryVec, s.k)
	if err != nil {
		logger.Error("knn search failed", zap.Error(err))
		return nil, err
	}

	unique := DedupeByPolicyText(hits, func(r SearchResult) string { return r.FullPolicyText })
	logger.Info("policy search complete",
		zap.Int("hits", len(hits)),
		zap.Int("unique", len(unique)))
	return unique, nil
}
