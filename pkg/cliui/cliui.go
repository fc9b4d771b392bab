// Package cliui provides reusable terminal UI helpers (spinners, step indicators,
// chat prompts, markdown rendering) for leonia CLI commands.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	HumanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	BotStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})
	var mu sync.Mutex

	go func() {
		defer close(stopped)
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)
	<-stopped

	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// WordsPerSecond is words divided by the elapsed seconds, or 0 when no time
// elapsed.
func WordsPerSecond(words int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(words) / d.Seconds()
}

// FormatTurnStats renders the footer printed after a bot turn, e.g.
// "3 sec (4.10 words per sec)" or "1 min 15 sec (0.40 words per sec)".
func FormatTurnStats(words int, d time.Duration) string {
	rate := fmt.Sprintf("(%.2f words per sec)", WordsPerSecond(words, d))

	secs := int(d.Round(time.Second) / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%d sec %s", secs, rate)
	}
	return fmt.Sprintf("%d min %d sec %s", secs/60, secs%60, rate)
}

// HumanPrompt is the input prompt shown before each human turn.
func HumanPrompt() string {
	return HumanStyle.Render("you") + DimStyle.Render(" › ")
}

// BotLabel prefixes the streamed bot output.
func BotLabel(name string) string {
	return BotStyle.Render(name) + DimStyle.Render(" › ")
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
