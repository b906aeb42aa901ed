package model

import "time"

// LogFile is a snapshot of one log file taken at scan time.
type LogFile struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Directory    string    `json:"directory"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modifiedTime"`
	RollNumber   *int      `json:"rollNumber,omitempty"` // nil for the current file
}

// Roll returns the rotation number, treating the current file as 0.
func (f LogFile) Roll() int {
	if f.RollNumber == nil {
		return 0
	}
	return *f.RollNumber
}

// LogGroup is a rolled family of log files sharing one base name.
// Files are ordered oldest to newest, the current file last.
type LogGroup struct {
	GroupName    string    `json:"groupName"`
	Files        []LogFile `json:"files"`
	FileCount    int       `json:"fileCount"`
	TotalSize    int64     `json:"totalSize"`
	LastModified time.Time `json:"lastModifiedTime"`
	Directories  []string  `json:"directories"`
}

// Paths returns the member file paths in canonical read order.
func (g LogGroup) Paths() []string {
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = f.Path
	}
	return paths
}
