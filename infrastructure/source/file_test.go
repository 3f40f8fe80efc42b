package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.txt")
	content := "# team roster\nAlice\n\n  Bob  \n#Carol\nDana\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	labels, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Dana"}, labels)
}

func TestFileSource_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	_, err := NewFileSource(path).Load(context.Background())

	var srcErr *ports.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "open", srcErr.Operation)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
