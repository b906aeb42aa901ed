package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	styleGroup = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleMeta  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// RenderGroups prints a scan result as an indented listing or as one JSON document.
func RenderGroups(w io.Writer, format string, groups []model.LogGroup) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	for _, g := range groups {
		header := fmt.Sprintf("%s %s", styleGroup.Render(g.GroupName),
			styleMeta.Render(fmt.Sprintf("(%d files, %s, %s)", g.FileCount, FormatSize(g.TotalSize), strings.Join(g.Directories, ", "))))
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		for _, f := range g.Files {
			line := fmt.Sprintf("  %-32s %10s  %s", f.Name, FormatSize(f.Size), f.ModifiedTime.Format("2006-01-02 15:04:05"))
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatSize renders a byte count with a binary unit suffix.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
