package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atikulmunna/logdeck/internal/config"
	"github.com/atikulmunna/logdeck/internal/grouper"
	"github.com/atikulmunna/logdeck/internal/merger"
	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/atikulmunna/logdeck/internal/output"
	"github.com/atikulmunna/logdeck/internal/parser"
	"github.com/atikulmunna/logdeck/internal/search"
	"github.com/atikulmunna/logdeck/internal/tailer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	follow      bool
	levelFilter string
	grepQuery   string
	fromFlag    string
	toFlag      string
)

var viewCmd = &cobra.Command{
	Use:   "view [paths...]",
	Short: "Print one or more log files as a single merged stream",
	Long: `Merge the given files (or doublestar patterns) in order and print every
line with its detected level. A pattern matching a rolled family is read
oldest file first. With --follow the last file keeps being tailed.

Queries are case-insensitive substrings, or /regex/flags.

Examples:
  logdeck view /var/log/app.log
  logdeck view "/var/log/app.log*" --level warn,error
  logdeck view app.log --follow --grep "/timeout|refused/i" --output json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runView,
}

func init() {
	flags := viewCmd.Flags()
	flags.BoolVarP(&follow, "follow", "f", false, "keep tailing the last file")
	flags.StringVarP(&levelFilter, "level", "l", "", "filter by severity (comma-separated: info,warn,error)")
	flags.StringVarP(&grepQuery, "grep", "g", "", "only show lines matching a substring or /regex/flags")
	flags.StringVar(&fromFlag, "from", "", "drop timestamped lines before this RFC 3339 time")
	flags.StringVar(&toFlag, "to", "", "drop timestamped lines after this RFC 3339 time")
	flags.Duration("poll-interval", time.Second, "fallback polling interval while following")

	cobra.CheckErr(viper.BindPFlag(config.KeyPollInterval, flags.Lookup("poll-interval")))

	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	filter, err := buildFilter()
	if err != nil {
		return err
	}

	renderer, err := output.New(outputFmt, os.Stdout, filter.Matcher)
	if err != nil {
		return err
	}

	v := &viewer{
		args:     args,
		merger:   merger.New(cfg.MaxReadBytes),
		filter:   filter,
		renderer: renderer,
	}
	paths, err := v.render()
	if err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine := tailer.New(cfg.TailOptions())
	if _, err := engine.Start(paths[len(paths)-1]); err != nil {
		return err
	}
	defer engine.Stop()

	return v.follow(ctx, engine)
}

func buildFilter() (search.Filter, error) {
	f := search.Filter{
		Levels:  search.ParseLevels(levelFilter),
		Matcher: search.BuildMatcher(grepQuery),
	}
	if grepQuery != "" && f.Matcher == nil {
		return f, fmt.Errorf("invalid --grep query %q: %w", grepQuery, model.ErrInvalidInput)
	}

	var err error
	if f.From, err = parseBound("from", fromFlag); err != nil {
		return f, err
	}
	if f.To, err = parseBound("to", toFlag); err != nil {
		return f, err
	}
	return f, nil
}

func parseBound(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: %w", name, value, model.ErrInvalidInput)
	}
	return t, nil
}

// viewer prints a merged stream and, when following, the lines appended to
// its last file.
type viewer struct {
	args     []string
	merger   *merger.Merger
	filter   search.Filter
	renderer output.Renderer

	next int // global index of the next tailed line
}

// render resolves the arguments, merges them and prints every kept line.
// It returns the resolved paths.
func (v *viewer) render() ([]string, error) {
	paths, err := grouper.Resolve(v.args)
	if err != nil {
		return nil, err
	}

	res := v.merger.Merge(paths)
	lines := parser.ClassifyLines(res.Lines)
	for _, m := range res.FileMarkers {
		if len(paths) > 1 {
			if err := v.renderer.Marker(m); err != nil {
				return nil, err
			}
		}
		for _, l := range lines[m.StartLine : m.StartLine+m.LineCount] {
			if !v.filter.Keep(l) {
				continue
			}
			if err := v.renderer.Render(l); err != nil {
				return nil, err
			}
		}
	}
	v.next = len(lines)
	return paths, nil
}

// follow renders tail events until ctx is cancelled or the file disappears
// for good. A truncation or rotation reloads the whole stream.
func (v *viewer) follow(ctx context.Context, engine *tailer.Engine) error {
	classifier := parser.NewClassifier()
	log.Debug().Strs("args", v.args).Str("query", v.filter.Matcher.String()).Msg("following")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-engine.Events():
			name := filepath.Base(ev.Path)
			switch ev.Kind {
			case tailer.NewLines:
				for _, raw := range ev.Lines {
					line := classifier.Parse(raw, name)
					line.GlobalIndex = v.next
					v.next++
					if !v.filter.Keep(line) {
						continue
					}
					if err := v.renderer.Render(line); err != nil {
						return err
					}
				}
			case tailer.Truncated:
				if err := v.renderer.Notice(name + " truncated or rotated, reloading"); err != nil {
					return err
				}
				if _, err := v.render(); err != nil {
					return err
				}
			case tailer.Error:
				if errors.Is(ev.Err, model.ErrNotFound) {
					return ev.Err
				}
				log.Warn().Err(ev.Err).Str("path", ev.Path).Msg("tail error")
			}
		}
	}
}
