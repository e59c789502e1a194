package shift

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/platformbuilds/lineboard/internal/models"
)

// WorkingMode names a shift pattern selecting which break windows apply.
type WorkingMode string

const (
	Mode1 WorkingMode = "mode1"
	Mode2 WorkingMode = "mode2"
	Mode3 WorkingMode = "mode3"

	DefaultMode = Mode1
)

// BreakWindow is a scheduled break given as offsets from local midnight.
// End before Start means the break runs past midnight into the next day.
type BreakWindow struct {
	ID    string
	Start time.Duration
	End   time.Duration
}

// CrossesMidnight reports whether the break ends on the following day.
func (b BreakWindow) CrossesMidnight() bool { return b.End < b.Start }

// Length returns the break duration.
func (b BreakWindow) Length() time.Duration {
	if b.CrossesMidnight() {
		return 24*time.Hour - b.Start + b.End
	}
	return b.End - b.Start
}

// ParseBreak builds a BreakWindow from "HH:MM" start and end strings.
func ParseBreak(id, start, end string) (BreakWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return BreakWindow{}, fmt.Errorf("break %q start: %w", id, err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return BreakWindow{}, fmt.Errorf("break %q end: %w", id, err)
	}
	return BreakWindow{ID: id, Start: s, End: e}, nil
}

// ParseClock parses a "HH:MM" time of day into an offset from midnight.
func ParseClock(v string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// FormatClock renders an offset from midnight as "HH:MM".
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// Schedule maps working modes to their break windows. A Schedule is immutable
// once built and safe for concurrent use.
type Schedule struct {
	breaks      map[string]BreakWindow
	modes       map[WorkingMode][]string
	defaultMode WorkingMode
}

// NewSchedule validates that every mode references known breaks and that the
// default mode exists.
func NewSchedule(breaks []BreakWindow, modes map[WorkingMode][]string, defaultMode WorkingMode) (*Schedule, error) {
	s := &Schedule{
		breaks:      make(map[string]BreakWindow, len(breaks)),
		modes:       make(map[WorkingMode][]string, len(modes)),
		defaultMode: defaultMode,
	}
	for _, b := range breaks {
		if b.ID == "" {
			return nil, fmt.Errorf("break window without id")
		}
		if _, dup := s.breaks[b.ID]; dup {
			return nil, fmt.Errorf("duplicate break window %q", b.ID)
		}
		s.breaks[b.ID] = b
	}
	for mode, ids := range modes {
		for _, id := range ids {
			if _, ok := s.breaks[id]; !ok {
				return nil, fmt.Errorf("mode %q references unknown break %q", mode, id)
			}
		}
		s.modes[mode] = append([]string(nil), ids...)
	}
	if _, ok := s.modes[defaultMode]; !ok {
		return nil, fmt.Errorf("default mode %q is not defined", defaultMode)
	}
	return s, nil
}

// DefaultSchedule returns the plant's standard break table.
func DefaultSchedule() *Schedule {
	s, err := NewSchedule(defaultBreaks(), defaultModes(), DefaultMode)
	if err != nil {
		panic(err)
	}
	return s
}

func defaultBreaks() []BreakWindow {
	raw := [][3]string{
		{"a", "10:00", "10:15"},
		{"b", "12:00", "12:30"},
		{"c", "16:00", "16:15"},
		{"d", "18:00", "18:30"},
		{"e", "20:00", "20:30"},
		{"f", "22:00", "22:15"},
		{"g", "00:00", "00:30"},
		{"h", "03:00", "03:15"},
		{"i", "05:00", "05:30"},
	}
	out := make([]BreakWindow, 0, len(raw))
	for _, r := range raw {
		b, err := ParseBreak(r[0], r[1], r[2])
		if err != nil {
			panic(err)
		}
		out = append(out, b)
	}
	return out
}

func defaultModes() map[WorkingMode][]string {
	return map[WorkingMode][]string{
		Mode1: {"a", "b", "e", "f", "h", "i"},
		Mode2: {"a", "b", "c", "f", "g", "h", "i"},
		Mode3: {"a", "b", "c", "d", "f", "g", "h", "i"},
	}
}

// ResolveMode maps a requested mode onto a configured one. Unknown or empty
// modes fall back to the default mode.
func (s *Schedule) ResolveMode(mode string) WorkingMode {
	m := WorkingMode(strings.ToLower(strings.TrimSpace(mode)))
	if _, ok := s.modes[m]; ok {
		return m
	}
	return s.defaultMode
}

// DefaultMode returns the fallback mode.
func (s *Schedule) DefaultMode() WorkingMode { return s.defaultMode }

// Modes returns the configured mode names in sorted order.
func (s *Schedule) Modes() []WorkingMode {
	out := make([]WorkingMode, 0, len(s.modes))
	for m := range s.modes {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Breaks returns the ordered break windows applying to mode.
func (s *Schedule) Breaks(mode string) []BreakWindow {
	ids := s.modes[s.ResolveMode(mode)]
	out := make([]BreakWindow, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.breaks[id])
	}
	return out
}

// AllBreaks returns every configured break sorted by id.
func (s *Schedule) AllBreaks() []BreakWindow {
	out := make([]BreakWindow, 0, len(s.breaks))
	for _, b := range s.breaks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BreakSeconds returns how many seconds of [start, end] fall inside the
// breaks of mode. Each break is anchored on every calendar day the interval
// touches, plus the day before start so that a break crossing midnight into
// the interval is counted. Overlapping breaks are summed independently.
func (s *Schedule) BreakSeconds(start, end time.Time, mode string) float64 {
	start = models.InAppZone(start)
	end = models.InAppZone(end)
	if !end.After(start) {
		return 0
	}

	first := midnight(start).AddDate(0, 0, -1)
	last := midnight(end)

	var total time.Duration
	for _, b := range s.Breaks(mode) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			bs := day.Add(b.Start)
			be := day.Add(b.End)
			if b.CrossesMidnight() {
				be = be.AddDate(0, 0, 1)
			}
			os := maxTime(start, bs)
			oe := minTime(end, be)
			if oe.After(os) {
				total += oe.Sub(os)
			}
		}
	}
	return total.Seconds()
}

// OperatingSeconds is the wall-clock span of [start, end] minus its break
// time, floored at zero.
func (s *Schedule) OperatingSeconds(start, end time.Time, mode string) float64 {
	span := end.Sub(start).Seconds()
	if span <= 0 {
		return 0
	}
	op := span - s.BreakSeconds(start, end, mode)
	if op < 0 {
		return 0
	}
	return op
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
