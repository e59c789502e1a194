package shift

// BreakEntry is the printable form of a BreakWindow.
type BreakEntry struct {
	ID      string `json:"id" yaml:"id"`
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	Minutes int    `json:"minutes" yaml:"minutes"`
}

// Table is the break schedule as served to dashboards and printed by the CLI.
type Table struct {
	DefaultMode string              `json:"default_mode" yaml:"default_mode"`
	Breaks      []BreakEntry        `json:"breaks" yaml:"breaks"`
	Modes       map[string][]string `json:"modes" yaml:"modes"`
}

// Table renders s for display.
func (s *Schedule) Table() Table {
	t := Table{
		DefaultMode: string(s.defaultMode),
		Modes:       make(map[string][]string, len(s.modes)),
	}
	for _, b := range s.AllBreaks() {
		t.Breaks = append(t.Breaks, BreakEntry{
			ID:      b.ID,
			Start:   FormatClock(b.Start),
			End:     FormatClock(b.End),
			Minutes: int(b.Length().Minutes()),
		})
	}
	for mode, ids := range s.modes {
		t.Modes[string(mode)] = append([]string(nil), ids...)
	}
	return t
}
