package policy

import (
	"github.com/cespare/xxhash/v2"

	"github.com/aihub/incident-backend-go/internal/logger"
)

// DedupeKey 返回策略全文的64位内容键。非加密哈希，只用于内容相等分桶，
// 在预期语料规模下接受可忽略的碰撞风险。
func DedupeKey(text string) uint64 {
	return xxhash.Sum64String(text)
}

// DedupeByPolicyText 按策略全文合并重复条目，保留首次出现的那条，输出顺序稳定。
// 全文缺失的条目直接丢弃并告警，不报错。检索之后和ID解析之后共用这一套逻辑。
func DedupeByPolicyText[T any](items []T, textOf func(T) string) []T {
	seen := make(map[uint64]struct{}, len(items))
	unique := make([]T, 0, len(items))
	for _, item := range items {
		text := textOf(item)
		if text == "" {
			logger.Warn("dropping result without full_policy_text")
			continue
		}
		key := DedupeKey(text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}
