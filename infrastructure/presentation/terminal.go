package presentation

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/ahrav/go-luckydraw/internal/domain"
)

var _ FrameSink = (*TerminalSink)(nil)

var (
	reelColor   = lipgloss.Color("#101F38")
	winnerColor = lipgloss.Color("#8BC34A")
	mutedColor  = lipgloss.Color("#d6dae0")
)

// TerminalSink draws a one-line reel on a terminal. Each frame overwrites
// the previous one; the final frame is highlighted and ends the line.
type TerminalSink struct {
	mu      sync.Mutex
	out     io.Writer
	spin    lipgloss.Style
	winner  lipgloss.Style
	counter lipgloss.Style
}

// NewTerminalSink creates a sink writing to out. Colors are chosen for the
// capabilities of out, so a plain buffer gets unstyled text.
func NewTerminalSink(out io.Writer) *TerminalSink {
	if out == nil {
		return &TerminalSink{}
	}
	r := lipgloss.NewRenderer(out)
	return &TerminalSink{
		out: out,
		spin: r.NewStyle().
			Foreground(reelColor).
			Background(mutedColor).
			Padding(0, 2),
		winner: r.NewStyle().
			Bold(true).
			Foreground(reelColor).
			Background(winnerColor).
			Padding(0, 2),
		counter: r.NewStyle().Faint(true),
	}
}

// Render implements FrameSink.
func (t *TerminalSink) Render(f Frame) error {
	if t == nil || t.out == nil {
		return domain.ErrPresentationTargetUnavailable
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	progress := t.counter.Render(fmt.Sprintf("%d/%d", f.Index+1, f.Total))
	if f.Final {
		_, err := fmt.Fprintf(t.out, "\r\033[2K%s %s\n", t.winner.Render(f.Label), progress)
		return err
	}
	_, err := fmt.Fprintf(t.out, "\r\033[2K%s %s", t.spin.Render(f.Label), progress)
	return err
}
