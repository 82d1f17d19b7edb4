package policy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihub/incident-backend-go/internal/config"
)

type stubGenerator struct {
	calls        int
	descriptions []string
	err          error
}

func (s *stubGenerator) GenerateExamples(ctx context.Context, policyText string) ([]string, error) {
	s.calls++
	return s.descriptions, s.err
}

// batchEmbedder 为每条输入返回一个独立的单位向量
type batchEmbedder struct{ calls int }

func (b *batchEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := b.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (b *batchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = unitVec(i % testDim)
	}
	return out, nil
}

func (b *batchEmbedder) Dimensions() int { return testDim }

func writePolicyFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestRun(t *testing.T) {
	ctx := context.Background()
	store := NewStore(config.StoreConfig{
		Path:      filepath.Join(t.TempDir(), "policies.sqlite"),
		Dimension: testDim,
		DefaultK:  10,
	})

	dir := t.TempDir()
	writePolicyFile(t, dir, "falls.txt", "falls policy text")
	writePolicyFile(t, dir, "medication.txt", "medication policy text")
	writePolicyFile(t, dir, "empty.txt", "   \n")

	generator := &stubGenerator{descriptions: []string{"situation one", "situation two"}}
	embedder := &batchEmbedder{}
	ingestor := NewIngestor(store, embedder, generator)

	summary, err := ingestor.Run(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, summary.Failed, "empty document fails without aborting the run")
	assert.Equal(t, 2, generator.calls)
	assert.Equal(t, 2, embedder.calls, "one batch embedding call per document")

	exists, err := store.HasPolicyText(ctx, "falls policy text")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIngestRerunSkipsCommittedDocuments(t *testing.T) {
	ctx := context.Background()
	store := NewStore(config.StoreConfig{
		Path:      filepath.Join(t.TempDir(), "policies.sqlite"),
		Dimension: testDim,
		DefaultK:  10,
	})

	dir := t.TempDir()
	writePolicyFile(t, dir, "falls.txt", "falls policy text")

	generator := &stubGenerator{descriptions: []string{"situation one"}}
	ingestor := NewIngestor(store, &batchEmbedder{}, generator)

	first, err := ingestor.Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Ingested)

	second, err := ingestor.Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Ingested)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, generator.calls, "committed documents must not be re-embedded on rerun")
}

func TestIngestGeneratorFailureIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStore(config.StoreConfig{
		Path:      filepath.Join(t.TempDir(), "policies.sqlite"),
		Dimension: testDim,
		DefaultK:  10,
	})

	dir := t.TempDir()
	writePolicyFile(t, dir, "falls.txt", "falls policy text")

	generator := &stubGenerator{err: errors.New("upstream down")}
	ingestor := NewIngestor(store, &batchEmbedder{}, generator)

	summary, err := ingestor.Run(ctx, dir)
	require.NoError(t, err, "per-document failures do not abort the run")
	assert.Equal(t, 1, summary.Failed)

	exists, err := store.HasPolicyText(ctx, "falls policy text")
	require.NoError(t, err)
	assert.False(t, exists)
}
