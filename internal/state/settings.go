package state

// DurationFormat controls how entry durations render.
type DurationFormat int

const (
	DurationClassic DurationFormat = iota // h:mm:ss
	DurationImproved                      // improved editable format
	DurationDecimal                       // decimal hours
)

// SettingsState is the ambient user preferences slice of the snapshot.
// It is plain data here; the dispatch manager serializes it to the
// settings keeper as JSON whenever a transition changes it, which makes
// settings the one piece of state with a side-effecting setter.
type SettingsState struct {
	DurationFormat  DurationFormat `json:"duration_format"`
	DateFormat      string         `json:"date_format"`
	Use24HourClock  bool           `json:"use_24_hour_clock"`
	BeginningOfWeek int            `json:"beginning_of_week"`
	GroupSimilar    bool           `json:"group_similar"`
}

// DefaultSettings returns the out-of-box preferences.
func DefaultSettings() SettingsState {
	return SettingsState{
		DateFormat:      "2006-01-02",
		BeginningOfWeek: 1, // Monday
	}
}

// SettingsOption mutates a copy of the settings state.
type SettingsOption func(*SettingsState)

// WithDurationFormat sets the duration rendering mode.
func WithDurationFormat(f DurationFormat) SettingsOption {
	return func(s *SettingsState) { s.DurationFormat = f }
}

// WithDateFormat sets the date layout.
func WithDateFormat(layout string) SettingsOption {
	return func(s *SettingsState) { s.DateFormat = layout }
}

// With24HourClock toggles 24-hour time rendering.
func With24HourClock(on bool) SettingsOption {
	return func(s *SettingsState) { s.Use24HourClock = on }
}

// WithBeginningOfWeek sets the first weekday (0 = Sunday).
func WithBeginningOfWeek(day int) SettingsOption {
	return func(s *SettingsState) { s.BeginningOfWeek = day }
}

// WithGroupSimilar toggles grouping of similar entries in lists.
func WithGroupSimilar(on bool) SettingsOption {
	return func(s *SettingsState) { s.GroupSimilar = on }
}

// With returns a modified copy. The receiver is never changed.
func (s SettingsState) With(opts ...SettingsOption) SettingsState {
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
