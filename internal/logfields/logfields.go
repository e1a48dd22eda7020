package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeySource     = "source"
	KeyDest       = "dest"
	KeyURL        = "url"
	KeyRepo       = "repository"
	KeyBranch     = "branch"
	KeyPage       = "page"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr   { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr   { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Source(p string) slog.Attr     { return slog.String(KeySource, p) }
func Dest(p string) slog.Attr       { return slog.String(KeyDest, p) }
func URL(u string) slog.Attr        { return slog.String(KeyURL, u) }
func Repository(r string) slog.Attr { return slog.String(KeyRepo, r) }
func Branch(b string) slog.Attr     { return slog.String(KeyBranch, b) }
func Page(p string) slog.Attr       { return slog.String(KeyPage, p) }

func DurationMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000.0)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
