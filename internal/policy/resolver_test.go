package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	calls  int
	gotIDs []int64
	texts  []string
	err    error
}

func (s *stubFetcher) FullPolicyTexts(ctx context.Context, ids []int64) ([]string, error) {
	s.calls++
	s.gotIDs = ids
	return s.texts, s.err
}

func TestResolveEmptyInput(t *testing.T) {
	fetcher := &stubFetcher{}
	r := NewResolver(fetcher)

	out, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, fetcher.calls, "store must not be queried for empty id list")
}

func TestResolveInvalidIdentifierAborts(t *testing.T) {
	fetcher := &stubFetcher{texts: []string{"policy"}}
	r := NewResolver(fetcher)

	_, err := r.Resolve(context.Background(), []string{"3", "not-a-number"})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.Zero(t, fetcher.calls, "a bad id aborts before the store is touched")
}

func TestResolveCoercesAndDedupes(t *testing.T) {
	fetcher := &stubFetcher{texts: []string{"falls policy", "falls policy", "fire policy"}}
	r := NewResolver(fetcher)

	out, err := r.Resolve(context.Background(), []string{"1", " 2 ", "3"})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, fetcher.gotIDs)
	assert.Equal(t, []string{"falls policy", "fire policy"}, out)
}

func TestResolveAllUnknownReturnsEmpty(t *testing.T) {
	fetcher := &stubFetcher{texts: nil}
	r := NewResolver(fetcher)

	out, err := r.Resolve(context.Background(), []string{"404"})
	require.NoError(t, err)
	assert.Empty(t, out)
}
