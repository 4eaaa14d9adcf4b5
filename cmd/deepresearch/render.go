package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"deepresearch/internal/research"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var (
	colorOK    = lipgloss.Color("#10B981")
	colorWarn  = lipgloss.Color("#F59E0B")
	colorError = lipgloss.Color("#F87171")
	colorInfo  = lipgloss.Color("#60A5FA")
	colorMuted = lipgloss.Color("#9CA3AF")
	colorTitle = lipgloss.Color("#A78BFA")
)

// palette holds styles bound to one output stream. Plain palettes render
// text unchanged.
type palette struct {
	enabled bool
	step    lipgloss.Style
	message lipgloss.Style
	title   lipgloss.Style
	muted   lipgloss.Style
	kinds   map[statusKind]lipgloss.Style
}

func newPalette(w io.Writer) palette {
	p := palette{enabled: shouldColorize(w)}
	if !p.enabled {
		return p
	}
	r := lipgloss.NewRenderer(w)
	p.step = r.NewStyle().Foreground(colorInfo).Bold(true)
	p.message = r.NewStyle()
	p.title = r.NewStyle().Foreground(colorTitle).Bold(true)
	p.muted = r.NewStyle().Foreground(colorMuted).Italic(true)
	p.kinds = map[statusKind]lipgloss.Style{
		statusInfo:  r.NewStyle().Foreground(colorInfo),
		statusOK:    r.NewStyle().Foreground(colorOK),
		statusWarn:  r.NewStyle().Foreground(colorWarn),
		statusError: r.NewStyle().Foreground(colorError),
	}
	return p
}

func (p palette) render(style lipgloss.Style, text string) string {
	if !p.enabled {
		return text
	}
	return style.Render(text)
}

// renderCheckpoint formats an Info event as "[n/total] message".
func renderCheckpoint(p palette, event research.Event) string {
	step := fmt.Sprintf("[%d/%d]", checkpointIndex(event.Checkpoint), len(research.Checkpoints))
	return p.render(p.step, step) + " " + p.render(p.message, event.Message)
}

func checkpointIndex(checkpoint research.Checkpoint) int {
	for i, c := range research.Checkpoints {
		if c == checkpoint {
			return i + 1
		}
	}
	return 0
}

// renderReport prints the report title, summary, body, and follow-ups.
func renderReport(p palette, artifact research.ReportArtifact) string {
	var b strings.Builder
	if title := strings.TrimSpace(artifact.Title); title != "" {
		b.WriteString(p.render(p.title, title))
		b.WriteString("\n\n")
	}
	if summary := strings.TrimSpace(artifact.ShortSummary); summary != "" {
		b.WriteString(p.render(p.muted, summary))
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(artifact.MarkdownBody))
	b.WriteString("\n")
	if len(artifact.FollowUpQuestions) > 0 {
		b.WriteString("\n")
		b.WriteString(p.render(p.title, "Follow-up questions"))
		b.WriteString("\n")
		for _, q := range artifact.FollowUpQuestions {
			if q = strings.TrimSpace(q); q != "" {
				fmt.Fprintf(&b, "  - %s\n", q)
			}
		}
	}
	return b.String()
}

func renderStatusLine(p palette, label string, kind statusKind, message string) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText = fmt.Sprintf("%s %s", statusText, message)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if !p.enabled {
		return base
	}
	return p.kinds[kind].Render(base)
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
