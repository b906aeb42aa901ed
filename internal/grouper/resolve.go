package grouper

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/bmatcuk/doublestar/v4"
)

// Resolve expands command-line arguments, literal paths or doublestar
// patterns, into the files to merge. Arguments keep their order; the files
// matched by one argument are ordered oldest to newest per rolled family.
func Resolve(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("resolve: no paths given: %w", model.ErrInvalidInput)
	}

	seen := make(map[string]bool)
	var out []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %v: %w", arg, err, model.ErrInvalidInput)
		}
		if len(matches) == 0 {
			if info, err := os.Stat(arg); err == nil && info.IsDir() {
				return nil, fmt.Errorf("resolve %q: is a directory: %w", arg, model.ErrInvalidPath)
			}
			return nil, fmt.Errorf("resolve %q: %w", arg, model.ErrNotFound)
		}

		var files []model.LogFile
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil || seen[abs] {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil {
				continue
			}
			seen[abs] = true
			parsed, _ := parseName(info.Name())
			files = append(files, model.LogFile{
				Name:         info.Name(),
				Path:         abs,
				Directory:    filepath.Dir(abs),
				Size:         info.Size(),
				ModifiedTime: info.ModTime(),
				RollNumber:   parsed.roll,
			})
		}
		for _, g := range groupFiles(files) {
			out = append(out, g.Paths()...)
		}
	}
	return out, nil
}
