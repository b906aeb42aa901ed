package parser

import (
	"testing"
	"time"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLevelCascade(t *testing.T) {
	cases := []struct {
		name string
		line string
		want model.Level
	}{
		{"severity text warning", `{"SeverityText":"WARNING","Body":"disk 90%"}`, model.LevelWarn},
		{"severity text critical", `{"severitytext":"critical"}`, model.LevelFatal},
		{"severity text passthrough", `{"SeverityText":"notice"}`, model.Level("NOTICE")},
		{"severity text beats keyword", `ERROR {"SeverityText":"Info"}`, model.LevelInfo},
		{"positional warn", `[1/15/24 10:23:45:123 EST] 0000001a SessionMgr  W cache full`, model.LevelWarn},
		{"positional audit", `[1/15/24 10:23:45:123 EST] 0000001a Server      A started`, model.LevelInfo},
		{"positional fatal", `[1/15/24 10:23:45:123 EST] 0000001a Server      C crashed`, model.LevelFatal},
		{"positional unmapped falls through", `[1/15/24 10:23:45:123 EST] 0000001a SystemOut   O ERROR in job`, model.LevelError},
		{"keyword", "2026-02-17 12:00:00 error: connection refused", model.LevelError},
		{"keyword severe", "jvm SEVERE heap exhausted", model.LevelFatal},
		{"keyword audit", "AUDIT user login", model.LevelInfo},
		{"keyword warning", "Warning: slow query", model.LevelWarn},
		{"keyword inside word ignored", "INFORMATIONAL message", ""},
		{"no level", "just some text", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			level, _ := Classify(tc.line)
			assert.Equal(t, tc.want, level)
		})
	}
}

func TestClassifyStructuredTimestamp(t *testing.T) {
	_, ts := Classify(`{"Timestamp":"2026-02-17T12:00:00.250Z","SeverityText":"INFO"}`)
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(time.Date(2026, 2, 17, 12, 0, 0, 250*int(time.Millisecond), time.UTC)))
}

func TestClassifyStructuredTimestampFallsThrough(t *testing.T) {
	// An unparseable structured value defers to the generic patterns.
	_, ts := Classify(`{"Timestamp":"yesterday"} 2026-02-17 08:30:00 INFO ok`)
	require.NotNil(t, ts)
	assert.Equal(t, 8, ts.Hour())
	assert.Equal(t, 30, ts.Minute())
}

func TestClassifyLegacyTimestamp(t *testing.T) {
	_, ts := Classify(`[1/5/24 9:07:03:045 EST] 0000001a Server I started`)
	require.NotNil(t, ts)

	want := time.Date(2024, time.January, 5, 9, 7, 3, 45*int(time.Millisecond), time.Local)
	assert.True(t, ts.Equal(want), "got %v", ts)
}

func TestClassifyGenericTimestamps(t *testing.T) {
	cases := []struct {
		name string
		line string
		want time.Time
	}{
		{"iso", "2026-02-17T12:00:00Z INFO up", time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)},
		{"spaced", "2026-02-17 12:00:01,500 WARN x", time.Date(2026, 2, 17, 12, 0, 1, 500*int(time.Millisecond), time.Local)},
		{"clf", `127.0.0.1 - - [17/Feb/2026:12:00:00 +0000] "GET / HTTP/1.1" 200 5`, time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)},
		{"us", "02/17/2026 1:02:03 PM started", time.Date(2026, 2, 17, 13, 2, 3, 0, time.Local)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ts := Classify(tc.line)
			require.NotNil(t, ts)
			assert.True(t, ts.Equal(tc.want), "got %v want %v", ts, tc.want)
		})
	}
}

func TestClassifySyslogAssumesCurrentYear(t *testing.T) {
	_, ts := Classify("Feb  3 04:05:06 host sshd[12]: Accepted")
	require.NotNil(t, ts)
	assert.Equal(t, time.Now().Year(), ts.Year())
	assert.Equal(t, time.February, ts.Month())
	assert.Equal(t, 3, ts.Day())
}

func TestClassifyStructuralMatchWithBadValue(t *testing.T) {
	// Month 13 matches the ISO structure, so later patterns are not tried.
	_, ts := Classify("2026-13-01T00:00:00 and also Feb  3 04:05:06")
	assert.Nil(t, ts)
}

func TestClassifyMissingTimestamp(t *testing.T) {
	level, ts := Classify("ERROR no time here")
	assert.Equal(t, model.LevelError, level)
	assert.Nil(t, ts)
}

func TestClassifyIsPure(t *testing.T) {
	line := `[1/15/24 10:23:45:123 EST] 0000001a SessionMgr  E failure`
	l1, t1 := Classify(line)
	l2, t2 := Classify(line)

	assert.Equal(t, l1, l2)
	require.NotNil(t, t1)
	require.NotNil(t, t2)
	assert.True(t, t1.Equal(*t2))
}

func TestClassifyLinesKeepsIndices(t *testing.T) {
	in := []model.MergedLine{
		{GlobalIndex: 0, Text: "INFO a", SourceFileName: "app.log.1"},
		{GlobalIndex: 1, Text: "plain", SourceFileName: "app.log"},
	}

	out := ClassifyLines(in)
	require.Len(t, out, 2)
	assert.Equal(t, model.LevelInfo, out[0].Level)
	assert.Equal(t, "app.log.1", out[0].SourceFileName)
	assert.Equal(t, 1, out[1].GlobalIndex)
	assert.Equal(t, model.Level(""), out[1].Level)
}

func TestClassifierParse(t *testing.T) {
	entry := NewClassifier().Parse("2026-02-17T12:00:00Z FATAL boom", "/var/log/app.log")

	assert.Equal(t, model.LevelFatal, entry.Level)
	assert.Equal(t, "/var/log/app.log", entry.SourceFileName)
	assert.Equal(t, "2026-02-17T12:00:00Z FATAL boom", entry.Text)
	require.NotNil(t, entry.Timestamp)
}

func TestSyslogLeapDay(t *testing.T) {
	ts, ok := syslogInYear("Feb 29 10:00:00", 2028)
	require.True(t, ok)
	assert.Equal(t, time.February, ts.Month())
	assert.Equal(t, 29, ts.Day())
	assert.Equal(t, 10, ts.Hour())

	_, ok = syslogInYear("Feb 29 10:00:00", 2026)
	assert.False(t, ok)

	ts, ok = syslogInYear("Dec  31 23:59:59", 2026)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 0, time.Local), ts)
}
