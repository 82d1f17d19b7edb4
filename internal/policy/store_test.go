package policy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihub/incident-backend-go/internal/config"
)

// 测试用小维度，schema由StoreConfig.Dimension参数化
const testDim = 4

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(config.StoreConfig{
		Path:      filepath.Join(t.TempDir(), "policies.sqlite"),
		Dimension: testDim,
		DefaultK:  10,
	})
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func unitVec(axis int) []float32 {
	v := make([]float32, testDim)
	v[axis] = 1
	return v
}

func TestInsertPolicyAndKNNOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.InsertPolicy(ctx, "falls policy text",
		[]string{"a fall with a scrape", "a trip on the stairs", "a slip in the bathroom"},
		[][]float32{unitVec(0), unitVec(1), unitVec(2)}))
	require.NoError(t, store.InsertPolicy(ctx, "medication policy text",
		[]string{"a missed medication dose"},
		[][]float32{unitVec(3)}))

	results, err := store.KNNSearch(ctx, unitVec(0), 4)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// 距离升序，最近命中的是与查询向量相同的情景
	assert.Equal(t, "falls policy text", results[0].FullPolicyText)
	assert.Equal(t, "a fall with a scrape", results[0].SituationDescription)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance,
			"results must be non-decreasing in distance")
	}
}

func TestInsertPolicyCountMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.InsertPolicy(ctx, "policy",
		[]string{"one", "two"},
		[][]float32{unitVec(0)})
	assert.ErrorIs(t, err, ErrIntegrity)

	exists, err := store.HasPolicyText(ctx, "policy")
	require.NoError(t, err)
	assert.False(t, exists, "failed insert must leave nothing behind")
}

func TestInsertPolicyBadDimensionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.InsertPolicy(ctx, "policy",
		[]string{"ok", "bad"},
		[][]float32{unitVec(0), make([]float32, testDim+1)})
	assert.ErrorIs(t, err, ErrIntegrity)

	exists, err := store.HasPolicyText(ctx, "policy")
	require.NoError(t, err)
	assert.False(t, exists, "partial writes must not be observable")
}

func TestFullPolicyTextsOmitsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.InsertPolicy(ctx, "falls policy text",
		[]string{"a fall"}, [][]float32{unitVec(0)}))

	texts, err := store.FullPolicyTexts(ctx, []int64{1, 9999})
	require.NoError(t, err)
	assert.Equal(t, []string{"falls policy text"}, texts)
}

func TestFullPolicyTextsEmptyInput(t *testing.T) {
	store := newTestStore(t)
	texts, err := store.FullPolicyTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestKNNSearchMissingStoreFile(t *testing.T) {
	store := NewStore(config.StoreConfig{
		Path:      filepath.Join(t.TempDir(), "does-not-exist.sqlite"),
		Dimension: testDim,
		DefaultK:  10,
	})

	_, err := store.KNNSearch(context.Background(), unitVec(0), 10)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestHasPolicyText(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	exists, err := store.HasPolicyText(ctx, "falls policy text")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.InsertPolicy(ctx, "falls policy text",
		[]string{"a fall"}, [][]float32{unitVec(0)}))

	exists, err = store.HasPolicyText(ctx, "falls policy text")
	require.NoError(t, err)
	assert.True(t, exists)
}

// 端到端检索：入库一份带三个示例情景的策略，检索应命中它且距离最小
func TestSearchServiceAgainstStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.InsertPolicy(ctx, "falls policy text",
		[]string{"a fall with a scrape", "a trip on the stairs", "a slip in the bathroom"},
		[][]float32{unitVec(0), unitVec(1), unitVec(2)}))
	require.NoError(t, store.InsertPolicy(ctx, "medication policy text",
		[]string{"a missed dose"},
		[][]float32{unitVec(3)}))

	embedder := &stubEmbedder{vec: unitVec(1)}
	svc := NewSearchService(embedder, store, 10)

	results, err := svc.FindCandidatePolicies(ctx, "the service user tripped on the stairs")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "falls policy text", results[0].FullPolicyText)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Distance, results[0].Distance)
	}
}
