// Package pagination normalizes list windows shared by the blog APIs.
package pagination

// Config configures window normalization.
type Config struct {
	DefaultLimit int64
	MaxLimit     int64
}

// Window is an effective list window after defaults and caps are applied.
type Window struct {
	Limit  int64
	Offset int64
}

// Clamp applies defaults and caps to a requested window. A non-positive limit
// falls back to the default, a limit above the cap is reduced to it, and a
// negative offset becomes zero.
func Clamp(limit, offset int64, cfg Config) Window {
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if limit <= 0 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}
	return Window{Limit: limit, Offset: offset}
}
