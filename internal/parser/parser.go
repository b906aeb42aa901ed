package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/atikulmunna/logdeck/internal/model"
)

// Parser converts a raw log line into a ClassifiedLine.
type Parser interface {
	Parse(raw string, source string) model.ClassifiedLine
}

// Classifier is the default Parser. It is stateless and safe for concurrent use.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

func (c *Classifier) Parse(raw string, source string) model.ClassifiedLine {
	level, ts := Classify(raw)
	return model.ClassifiedLine{
		MergedLine: model.MergedLine{Text: raw, SourceFileName: source},
		Level:      level,
		Timestamp:  ts,
	}
}

// Classify detects the severity level and timestamp of a line.
// An empty Level or nil timestamp means nothing was detected.
func Classify(line string) (model.Level, *time.Time) {
	return detectLevel(line), detectTimestamp(line)
}

// ClassifyLines annotates every merged line, preserving order and indices.
func ClassifyLines(lines []model.MergedLine) []model.ClassifiedLine {
	out := make([]model.ClassifiedLine, len(lines))
	for i, l := range lines {
		level, ts := Classify(l.Text)
		out[i] = model.ClassifiedLine{MergedLine: l, Level: level, Timestamp: ts}
	}
	return out
}

// ---------------------------------------------------------------------------
// Level detection
// ---------------------------------------------------------------------------

// levelRule extracts a level from a line. ok=false passes to the next rule.
type levelRule func(line string) (model.Level, bool)

// levelRules are evaluated in order; the first match wins.
var levelRules = []levelRule{
	severityTextLevel,
	positionalLevel,
	keywordLevel,
}

var (
	severityTextRe = regexp.MustCompile(`(?i)"SeverityText"\s*:\s*"([^"]*)"`)

	// ] <hex-id> <component> <LETTER>
	positionalRe = regexp.MustCompile(`\]\s+[0-9A-Fa-f]+\s+\S+\s+([A-Za-z])\s`)

	keywordRe = regexp.MustCompile(`(?i)\b(TRACE|DEBUG|INFO|WARN(?:ING)?|ERROR|FATAL|SEVERE|CRITICAL|AUDIT)\b`)
)

func detectLevel(line string) model.Level {
	for _, rule := range levelRules {
		if level, ok := rule(line); ok {
			return level
		}
	}
	return ""
}

func severityTextLevel(line string) (model.Level, bool) {
	m := severityTextRe.FindStringSubmatch(line)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "", false
	}
	return normalizeLevel(m[1]), true
}

func positionalLevel(line string) (model.Level, bool) {
	m := positionalRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	switch strings.ToUpper(m[1]) {
	case "I", "A":
		return model.LevelInfo, true
	case "W":
		return model.LevelWarn, true
	case "E":
		return model.LevelError, true
	case "D":
		return model.LevelDebug, true
	case "F", "C":
		return model.LevelFatal, true
	}
	return "", false
}

func keywordLevel(line string) (model.Level, bool) {
	m := keywordRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return normalizeLevel(m[1]), true
}

// normalizeLevel folds level aliases onto the standard set.
// Unknown values pass through upper-cased.
func normalizeLevel(s string) model.Level {
	switch v := strings.ToUpper(strings.TrimSpace(s)); v {
	case "WARNING":
		return model.LevelWarn
	case "SEVERE", "CRITICAL":
		return model.LevelFatal
	case "AUDIT":
		return model.LevelInfo
	default:
		return model.Level(v)
	}
}

// ---------------------------------------------------------------------------
// Timestamp detection
// ---------------------------------------------------------------------------

// timestampRule locates and parses one timestamp format.
type timestampRule struct {
	name  string
	re    *regexp.Regexp
	parse func(m []string) (time.Time, bool)
	final bool
}

// timestampRules are evaluated in order. Non-final rules fall through when
// the value does not parse; final rules win on a structural match alone.
var timestampRules = []timestampRule{
	{
		name:  "structured",
		re:    regexp.MustCompile(`"Timestamp"\s*:\s*"([^"]+)"`),
		parse: parseISO,
	},
	{
		name:  "legacy",
		re:    regexp.MustCompile(`\[(\d{1,2})/(\d{1,2})/(\d{2,4})\s+(\d{1,2}):(\d{2}):(\d{2}):(\d{1,3})(?:\s+([A-Za-z]{1,5}))?\]`),
		parse: parseLegacy,
	},
	{
		name:  "iso",
		re:    regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?)`),
		parse: parseISO,
		final: true,
	},
	{
		name:  "spaced",
		re:    regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:[.,]\d+)?)`),
		parse: layouts("2006-01-02 15:04:05"),
		final: true,
	},
	{
		name:  "bracketed",
		re:    regexp.MustCompile(`\[(\d{2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})\]`),
		parse: layouts("02/Jan/2006:15:04:05 -0700"),
		final: true,
	},
	{
		name:  "us",
		re:    regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2}(?: ?[AaPp][Mm])?)`),
		parse: layouts("1/2/2006 15:04:05", "1/2/2006 3:04:05 PM", "1/2/2006 3:04:05PM"),
		final: true,
	},
	{
		name:  "syslog",
		re:    regexp.MustCompile(`((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) +\d{1,2} \d{2}:\d{2}:\d{2})`),
		parse: parseSyslog,
		final: true,
	},
}

func detectTimestamp(line string) *time.Time {
	for _, rule := range timestampRules {
		m := rule.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if t, ok := rule.parse(m); ok {
			return &t
		}
		if rule.final {
			return nil
		}
	}
	return nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
}

func parseISO(m []string) (time.Time, bool) {
	v := strings.Replace(strings.TrimSpace(m[1]), ",", ".", 1)
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// layouts returns a parser trying each layout in local time.
// A comma decimal separator is accepted as a dot.
func layouts(candidates ...string) func(m []string) (time.Time, bool) {
	return func(m []string) (time.Time, bool) {
		v := strings.Replace(m[1], ",", ".", 1)
		for _, layout := range candidates {
			if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
}

// parseLegacy handles [M/D/YY H:mm:ss:mmm TZ]. The zone abbreviation is ignored
// and the wall-clock components are used as local time.
func parseLegacy(m []string) (time.Time, bool) {
	n := make([]int, 7)
	for i := range n {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	month, day, year, hour, minute, sec, milli := n[0], n[1], n[2], n[3], n[4], n[5], n[6]
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, milli*int(time.Millisecond), time.Local)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseSyslog handles "Jan _2 15:04:05", which carries no year; the current year is assumed.
func parseSyslog(m []string) (time.Time, bool) {
	return syslogInYear(m[1], time.Now().Year())
}

// syslogInYear places a yearless syslog stamp in year. A day that does not
// exist in that year (Feb 29) is rejected rather than rolled over.
func syslogInYear(v string, year int) (time.Time, bool) {
	v = strings.Join(strings.Fields(v), " ")
	p, err := time.Parse("Jan 2 15:04:05", v)
	if err != nil {
		return time.Time{}, false
	}
	t := time.Date(year, p.Month(), p.Day(), p.Hour(), p.Minute(), p.Second(), 0, time.Local)
	if t.Month() != p.Month() || t.Day() != p.Day() {
		return time.Time{}, false
	}
	return t, true
}
