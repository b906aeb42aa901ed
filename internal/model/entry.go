package model

import "time"

// Level is a normalized log severity. The empty Level means no level was detected.
type Level string

const (
	LevelTrace Level = "TRACE"
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

// MergedLine is one line of a merged sequence.
// GlobalIndex is only stable within a single merge result.
type MergedLine struct {
	GlobalIndex    int    `json:"globalIndex"`
	Text           string `json:"text"`
	SourceFileName string `json:"sourceFileName,omitempty"`
}

// ClassifiedLine is a MergedLine annotated with its detected level and timestamp.
type ClassifiedLine struct {
	MergedLine
	Level     Level      `json:"level,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// FileMarker locates one source file's lines within a merged sequence.
type FileMarker struct {
	FileName  string `json:"fileName"`
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	LineCount int    `json:"lineCount"`
	Truncated bool   `json:"truncated,omitempty"` // only the tail of the file was read
}

// TailSession is the observable state of one tail watch.
type TailSession struct {
	WatchedPath   string `json:"watchedPath"`
	LastKnownSize int64  `json:"lastKnownSize"`
	Active        bool   `json:"active"`
}
