package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one cached payload with the time it was stored.
type Entry struct {
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type Entries map[string]Entry

// Layouts accepted when reading timestamps. Files written by older tools carry
// naive local ISO-8601 times with microseconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised cache timestamp %q", s)
}
