package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

var _ ports.CandidateSource = (*FileSource)(nil)

// FileSource reads one candidate per line. Blank lines and lines starting
// with '#' are skipped.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Load implements ports.CandidateSource.
func (f *FileSource) Load(ctx context.Context) ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, ports.NewSourceError(f.path, "open", err)
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, ports.NewSourceError(f.path, "read", err)
			}
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		labels = append(labels, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, ports.NewSourceError(f.path, "read", fmt.Errorf("scan: %w", err))
	}
	return labels, nil
}
