package models

import (
	"strconv"
	"strings"
	"time"
)

// AppLocation is the single application timezone. Production lines report in
// UTC+3 and the plant does not observe daylight saving, so a fixed offset is
// used instead of a tz database zone.
var AppLocation = time.FixedZone("UTC+3", 3*60*60)

// naiveLayouts are accepted ISO-8601 shapes without a zone designator. They
// are interpreted in AppLocation.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp or an epoch value in seconds,
// milliseconds or microseconds and returns it in AppLocation. A trailing "Z"
// is UTC, an explicit offset is honoured and a missing zone means AppLocation.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &ValidationError{Message: "timestamp is empty"}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(AppLocation), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, AppLocation); err == nil {
			return t, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromFlexibleEpoch(n).In(AppLocation), nil
	}
	return time.Time{}, &ValidationError{Message: "unparseable timestamp " + strconv.Quote(s)}
}

// InAppZone converts t to AppLocation. The zero time is returned unchanged.
func InAppZone(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(AppLocation)
}

// FlexibleTime unmarshals either ISO-8601 strings or epoch values in seconds,
// milliseconds, or microseconds.
type FlexibleTime struct{ time.Time }

func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" || s == `""` {
		ft.Time = time.Time{}
		return nil
	}
	s = strings.Trim(s, "\"")
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

func fromFlexibleEpoch(n int64) time.Time {
	switch {
	case n >= 1_000_000_000_000_000: // >= 1e15: microseconds
		return time.UnixMicro(n)
	case n >= 1_000_000_000_000: // >= 1e12: milliseconds
		return time.UnixMilli(n)
	default:
		return time.Unix(n, 0)
	}
}

func (ft FlexibleTime) IsZero() bool      { return ft.Time.IsZero() }
func (ft FlexibleTime) AsTime() time.Time { return ft.Time }
