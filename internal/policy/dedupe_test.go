package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func textOf(r SearchResult) string { return r.FullPolicyText }

func TestDedupeKeyStable(t *testing.T) {
	assert.Equal(t, DedupeKey("policy a"), DedupeKey("policy a"))
	assert.NotEqual(t, DedupeKey("policy a"), DedupeKey("policy b"))
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	input := []SearchResult{
		{ID: 1, Distance: 0.1, FullPolicyText: "falls policy"},
		{ID: 2, Distance: 0.2, FullPolicyText: "medication policy"},
		{ID: 3, Distance: 0.3, FullPolicyText: "falls policy"},
	}

	out := DedupeByPolicyText(input, textOf)

	assert.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID, "first occurrence wins")
	assert.Equal(t, int64(2), out[1].ID)
}

func TestDedupeDropsMissingText(t *testing.T) {
	input := []SearchResult{
		{ID: 1, FullPolicyText: ""},
		{ID: 2, FullPolicyText: "safeguarding policy"},
	}

	out := DedupeByPolicyText(input, textOf)

	assert.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)
}

func TestDedupeIdempotent(t *testing.T) {
	input := []SearchResult{
		{ID: 1, FullPolicyText: "a"},
		{ID: 2, FullPolicyText: "b"},
		{ID: 3, FullPolicyText: "a"},
		{ID: 4, FullPolicyText: "c"},
	}

	once := DedupeByPolicyText(input, textOf)
	twice := DedupeByPolicyText(once, textOf)

	assert.Equal(t, once, twice)
}

func TestDedupeEmptyInput(t *testing.T) {
	assert.Empty(t, DedupeByPolicyText(nil, textOf))
	assert.Empty(t, DedupeByPolicyText([]SearchResult{}, textOf))
}

func TestDedupeStrings(t *testing.T) {
	// ID解析路径复用同一套去重
	out := DedupeByPolicyText([]string{"x", "y", "x", ""}, func(s string) string { return s })
	assert.Equal(t, []string{"x", "y"}, out)
}
