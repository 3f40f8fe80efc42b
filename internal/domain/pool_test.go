package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name           string
		labels         []string
		keepDuplicates bool
		want           []string
	}{
		{
			name:   "preserves first-seen order",
			labels: []string{"Carol", "Alice", "Bob"},
			want:   []string{"Carol", "Alice", "Bob"},
		},
		{
			name:   "drops empty labels",
			labels: []string{"", "Alice", "", "Bob"},
			want:   []string{"Alice", "Bob"},
		},
		{
			name:   "collapses duplicates",
			labels: []string{"A", "B", "A", "C", "B"},
			want:   []string{"A", "B", "C"},
		},
		{
			name:           "keeps duplicates when asked",
			labels:         []string{"A", "", "A", "B"},
			keepDuplicates: true,
			want:           []string{"A", "A", "B"},
		},
		{
			name:   "nil input",
			labels: nil,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(tt.labels, tt.keepDuplicates)
			assert.Equal(t, tt.want, p.Items())
			assert.Equal(t, len(tt.want), p.Len())
			assert.Equal(t, len(tt.want) == 0, p.IsEmpty())
		})
	}
}

func TestPool_ReplaceDoesNotAliasInput(t *testing.T) {
	labels := []string{"A", "B"}
	p := NewPool(labels, false)

	labels[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, p.Items(), "Pool should hold its own copy")

	items := p.Items()
	items[1] = "Y"
	assert.Equal(t, []string{"A", "B"}, p.Items(), "Items() should return a copy")
}

func TestPool_RemoveFirstMatching(t *testing.T) {
	p := NewPool([]string{"A", "B", "A", "C"}, true)

	require.True(t, p.RemoveFirstMatching("A"))
	assert.Equal(t, []string{"B", "A", "C"}, p.Items(), "only the first occurrence should go")
	assert.Equal(t, 1, p.Count("A"))

	assert.False(t, p.RemoveFirstMatching("Z"), "absent label is a no-op")
	assert.Equal(t, 3, p.Len())

	require.True(t, p.RemoveFirstMatching("A"))
	require.True(t, p.RemoveFirstMatching("B"))
	require.True(t, p.RemoveFirstMatching("C"))
	assert.True(t, p.IsEmpty())
	assert.False(t, p.RemoveFirstMatching("C"))
}

func TestPool_SetKeepDuplicates(t *testing.T) {
	p := NewPool([]string{"A", "A"}, false)
	assert.Equal(t, []string{"A"}, p.Items())

	p.SetKeepDuplicates(true)
	assert.Equal(t, []string{"A"}, p.Items(), "existing contents are not rewritten")

	p.Replace([]string{"A", "A"})
	assert.Equal(t, []string{"A", "A"}, p.Items())
}
