package grouper

import (
	"regexp"
	"strconv"
)

var (
	// name.ext or name.ext.N
	eligibleRe = regexp.MustCompile(`(?i)^(.+)\.(log|txt|out|err)(?:\.(\d+))?$`)

	// owner/lock sidecars such as app.log.lck
	sidecarRe = regexp.MustCompile(`(?i)\.log\.[a-z]+$`)
)

// parsedName is the result of splitting a log file name.
type parsedName struct {
	groupKey string
	roll     *int
}

// parseName reports whether name is an eligible log file and, if so, its
// group key and rotation number.
func parseName(name string) (parsedName, bool) {
	if sidecarRe.MatchString(name) {
		return parsedName{}, false
	}
	m := eligibleRe.FindStringSubmatch(name)
	if m == nil {
		return parsedName{}, false
	}

	p := parsedName{groupKey: m[1]}
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return parsedName{}, false
		}
		p.roll = &n
	}
	return p, true
}

// GroupKey returns the rotation-stripped base name, e.g. app.log.3 -> app.
func GroupKey(name string) string {
	if p, ok := parseName(name); ok {
		return p.groupKey
	}
	return name
}
