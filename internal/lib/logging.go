package lib

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
)

func ParseSLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

func NiceLogger(w io.Writer, level slog.Level) *slog.Logger {
	// https://www.reddit.com/r/golang/comments/15nwnkl/achieve_lshortfile_with_slog/jy8emik/
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     &level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))
}

// PrettyLogger is NiceLogger for humans at a terminal.
func PrettyLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		ReportCaller:    true,
		Level:           charmlog.Level(level),
	}))
}

// NewLogger picks the handler by format name, "text" or "pretty".
func NewLogger(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	switch format {
	case "", "text":
		return NiceLogger(w, level), nil
	case "pretty":
		return PrettyLogger(w, level), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}
