// Package logger provides structured logging for blinkdb-server.
package logger

import (
	"fmt"
	"log/slog"
)

// truncateThreshold is the longest string value logged verbatim. SET/GET
// values can be up to respcodec.MaxBulkLen bytes and are binary besides;
// logging them in full would both flood the log stream and embed raw
// binary in what is otherwise a structured, human-readable format.
const truncateThreshold = 256

// truncatePrefixLen is how much of an over-threshold value is kept when
// truncating it for logging.
const truncatePrefixLen = 32

// truncateLargeValues shortens any string attribute longer than
// truncateThreshold, replacing the excess with a remaining-byte count.
// Applied as a slog.HandlerOptions.ReplaceAttr hook so it runs uniformly
// regardless of call site.
func truncateLargeValues(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); len(s) > truncateThreshold {
			return slog.String(a.Key, TruncateString(s))
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = truncateLargeValues(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// TruncateString shortens a value for logging, keeping a leading prefix
// and reporting how many bytes were cut. Use this when building a log
// message by hand for a value that may be large or binary.
func TruncateString(value string) string {
	if len(value) <= truncateThreshold {
		return value
	}
	return fmt.Sprintf("%s...(%d more bytes)", value[:truncatePrefixLen], len(value)-truncatePrefixLen)
}
