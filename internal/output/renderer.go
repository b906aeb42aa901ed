package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/atikulmunna/logdeck/internal/search"
	"github.com/charmbracelet/lipgloss"
)

// Renderer writes classified lines to an output stream.
type Renderer interface {
	Render(line model.ClassifiedLine) error
	// Marker announces the start of a file within merged output.
	Marker(m model.FileMarker) error
	// Notice reports a tail event such as truncation.
	Notice(msg string) error
}

// New returns the renderer for format ("text" or "json") writing to w.
func New(format string, w io.Writer, m *search.Matcher) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextRenderer(w, m), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q: %w", format, model.ErrInvalidInput)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleTrace = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Faint(true)
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleFatal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true)
	styleSource = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true)
	styleMatch  = lipgloss.NewStyle().Reverse(true)
	styleMarker = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleNotice = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Italic(true)
)

// TextRenderer prints lines with severity colors and highlighted matches.
type TextRenderer struct {
	w       io.Writer
	matcher *search.Matcher
}

// NewTextRenderer returns a TextRenderer. m may be nil.
func NewTextRenderer(w io.Writer, m *search.Matcher) *TextRenderer {
	return &TextRenderer{w: w, matcher: m}
}

func (r *TextRenderer) Render(line model.ClassifiedLine) error {
	parts := []string{styleLevelTag(line.Level)}
	if line.SourceFileName != "" {
		parts = append(parts, styleSource.Render(line.SourceFileName))
	}
	parts = append(parts, highlight(line.Text, r.matcher.Highlight(line.Text)))

	_, err := fmt.Fprintln(r.w, strings.Join(parts, " "))
	return err
}

func (r *TextRenderer) Marker(m model.FileMarker) error {
	label := fmt.Sprintf("==> %s (%d lines)", m.FileName, m.LineCount)
	if m.Truncated {
		label += " [tail only]"
	}
	_, err := fmt.Fprintln(r.w, styleMarker.Render(label))
	return err
}

func (r *TextRenderer) Notice(msg string) error {
	_, err := fmt.Fprintln(r.w, styleNotice.Render("-- "+msg+" --"))
	return err
}

func styleLevelTag(level model.Level) string {
	padded := fmt.Sprintf("%-5s", level)
	switch level {
	case model.LevelTrace:
		return styleTrace.Render(padded)
	case model.LevelDebug:
		return styleDebug.Render(padded)
	case model.LevelWarn:
		return styleWarn.Render(padded)
	case model.LevelError:
		return styleError.Render(padded)
	case model.LevelFatal:
		return styleFatal.Render(padded)
	default:
		return styleInfo.Render(padded)
	}
}

// highlight wraps each inclusive span of text in the match style.
func highlight(text string, spans []search.Span) string {
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	pos := 0
	for _, s := range spans {
		b.WriteString(text[pos:s.Start])
		b.WriteString(styleMatch.Render(text[s.Start : s.End+1]))
		pos = s.End + 1
	}
	b.WriteString(text[pos:])
	return b.String()
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints one JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(line model.ClassifiedLine) error {
	return r.enc.Encode(line)
}

func (r *JSONRenderer) Marker(m model.FileMarker) error {
	return r.enc.Encode(struct {
		Type string `json:"type"`
		model.FileMarker
	}{Type: "file", FileMarker: m})
}

func (r *JSONRenderer) Notice(msg string) error {
	return r.enc.Encode(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "notice", Message: msg})
}
