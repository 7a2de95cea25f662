package util

import (
    "strconv"
    "time"
)

// layouts accepted for source timestamps and bucket keys, tried in order.
// Sources disagree on precision and zone notation, so the list is generous.
var layouts = []string{
    time.RFC3339,
    time.RFC3339Nano,
    "2006-01-02T15:04Z07:00",
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
    "2006-01-02 15:04:05",
    "2006-01-02",
}

// ParseTime tries the known ISO-8601 layouts and unix seconds/milliseconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    for _, layout := range layouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t, true
        }
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        // 13-digit values are millisecond epochs
        if ts > 1e12 {
            return time.UnixMilli(ts), true
        }
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
// Callers pass time.Now() so malformed source timestamps degrade to
// ingestion time instead of being dropped.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// ParseBucketKey resolves a time-bucket key to its boundary instant.
// Bucket keys use the same layouts as timestamps.
func ParseBucketKey(s string) (time.Time, bool) {
    return ParseTime(s)
}
