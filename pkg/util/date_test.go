package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeMinutePrecision(t *testing.T) {
    got, ok := ParseTime("2024-01-01T02:00Z")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Hour() != 2 {
        t.Fatalf("unexpected hour %d", got.UTC().Hour())
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeUnixMillis(t *testing.T) {
    ms := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).UnixMilli()
    got, ok := ParseTime(strconv.FormatInt(ms, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UnixMilli() != ms {
        t.Fatalf("unexpected millis %v", got.UnixMilli())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
    got = ParseTimeDefault("not-a-time", def)
    if !got.Equal(def) {
        t.Fatalf("expected default for garbage input")
    }
}

func TestParseBucketKeyGarbage(t *testing.T) {
    if _, ok := ParseBucketKey("bucket-7"); ok {
        t.Fatalf("expected parse failure")
    }
}
