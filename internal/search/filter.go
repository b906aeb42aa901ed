package search

import (
	"strings"
	"time"

	"github.com/atikulmunna/logdeck/internal/model"
)

// Filter selects classified lines. Zero-valued fields do not filter.
//
// Lines without a detected level are never dropped by Levels, and lines
// without a timestamp are never dropped by From/To.
type Filter struct {
	Levels  map[model.Level]bool
	Matcher *Matcher
	From    time.Time
	To      time.Time
}

// ParseLevels builds a level set from names such as "warn,error".
func ParseLevels(names ...string) map[model.Level]bool {
	set := make(map[model.Level]bool)
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if part == "WARNING" {
				part = string(model.LevelWarn)
			}
			set[model.Level(part)] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// Keep reports whether a single line passes the filter.
func (f Filter) Keep(line model.ClassifiedLine) bool {
	if len(f.Levels) > 0 && line.Level != "" && !f.Levels[line.Level] {
		return false
	}
	if line.Timestamp != nil {
		if !f.From.IsZero() && line.Timestamp.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && line.Timestamp.After(f.To) {
			return false
		}
	}
	return f.Matcher.Match(line.Text)
}

// Apply returns the lines that pass the filter, in their original order.
func (f Filter) Apply(lines []model.ClassifiedLine) []model.ClassifiedLine {
	if !f.Active() {
		return lines
	}
	out := make([]model.ClassifiedLine, 0, len(lines))
	for _, l := range lines {
		if f.Keep(l) {
			out = append(out, l)
		}
	}
	return out
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return len(f.Levels) > 0 || f.Matcher != nil || !f.From.IsZero() || !f.To.IsZero()
}
