package policy

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aihub/incident-backend-go/internal/logger"
)

// PolicyTextFetcher 按ID取回策略全文的能力，由Store实现
type PolicyTextFetcher interface {
	FullPolicyTexts(ctx context.Context, ids []int64) ([]string, error)
}

// Resolver 把生成结果引用的策略ID展开为去重后的策略全文
type Resolver struct {
	store PolicyTextFetcher
}

// NewResolver 创建策略全文解析器
func NewResolver(store PolicyTextFetcher) *Resolver {
	return &Resolver{store: store}
}

// Resolve 解析一组策略ID。任一ID无法转换为整数时整个调用失败，
// 不跳过坏ID；未知ID静默忽略；全部未知时告警并返回空列表。
func (r *Resolver) Resolve(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		logger.Warn("empty id list provided to policy resolver")
		return []string{}, nil
	}

	numeric := make([]int64, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
		}
		numeric = append(numeric, id)
	}

	texts, err := r.store.FullPolicyTexts(ctx, numeric)
	if err != nil {
		logger.Error("failed to fetch full policy texts", zap.Error(err))
		return nil, err
	}

	unique := DedupeByPolicyText(texts, func(t string) string { return t })
	if len(unique) == 0 {
		logger.Warn("no policies found for ids", zap.Int64s("ids", numeric))
	}
	return unique, nil
}
