package org

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampKind distinguishes agenda-relevant <active> stamps from inert
// [inactive] ones.
type TimestampKind string

const (
	TimestampActive   TimestampKind = "active"
	TimestampInactive TimestampKind = "inactive"
)

// Repeater is a recurrence suffix on a timestamp, e.g. "+1w".
type Repeater struct {
	// Mark is "+" (fixed), "++" (catch-up) or ".+" (restart).
	Mark string
	// Value is the repeat interval count.
	Value int
	// Unit is "h", "d", "w", "m" or "y".
	Unit string
}

func (r *Repeater) String() string {
	return fmt.Sprintf("%s%d%s", r.Mark, r.Value, r.Unit)
}

// Timestamp is a calendar timestamp such as <2024-03-15 Fri 10:30 +1w>.
// Months and days are 1-indexed. The text form is derived
// deterministically from the structured fields by String, so a parsed
// stamp carries no raw source text.
type Timestamp struct {
	Kind TimestampKind

	YearStart  int
	MonthStart int
	DayStart   int
	// Weekday is the day-of-week token as written ("Fri"), or empty.
	Weekday string

	// HourStart and MinuteStart are meaningful only when HasTime is set.
	HourStart   int
	MinuteStart int
	HasTime     bool

	// The end fields describe either the second stamp of a <a>--<b> range
	// (HasEnd set) or the end of a same-day H:MM-H:MM range (HasTimeEnd
	// set without HasEnd).
	YearEnd    int
	MonthEnd   int
	DayEnd     int
	HourEnd    int
	MinuteEnd  int
	HasEnd     bool
	HasTimeEnd bool

	Repeater *Repeater
}

func (t *Timestamp) Type() NodeType { return TimestampNode }

// timestampBodyRe matches the interior of a single <...> or [...] stamp:
// date, optional weekday, optional time or time range, optional repeater.
var timestampBodyRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})` +
	`(?:\s+([^\s\d+.][^\s]*))?` +
	`(?:\s+(\d{1,2}):(\d{2})(?:-(\d{1,2}):(\d{2}))?)?` +
	`(?:\s+(\+\+?|\.\+)(\d+)([hdwmy]))?\s*$`)

// ParseTimestamp parses a complete timestamp, <a>--<b> ranges included.
// It reports false for anything that does not parse cleanly; callers fall
// back to treating the text as prose.
func ParseTimestamp(s string) (*Timestamp, bool) {
	s = strings.TrimSpace(s)
	first, rest, ok := splitStamp(s)
	if !ok {
		return nil, false
	}
	ts, ok := parseSingleStamp(first)
	if !ok {
		return nil, false
	}
	if rest == "" {
		return ts, true
	}
	if !strings.HasPrefix(rest, "--") {
		return nil, false
	}
	second, tail, ok := splitStamp(rest[2:])
	if !ok || tail != "" {
		return nil, false
	}
	end, ok := parseSingleStamp(second)
	if !ok || end.Kind != ts.Kind {
		return nil, false
	}
	ts.HasEnd = true
	ts.YearEnd, ts.MonthEnd, ts.DayEnd = end.YearStart, end.MonthStart, end.DayStart
	if end.HasTime {
		ts.HourEnd, ts.MinuteEnd = end.HourStart, end.MinuteStart
		ts.HasTimeEnd = true
	}
	return ts, true
}

// splitStamp consumes one bracketed stamp from the front of s and returns
// it plus the remainder.
func splitStamp(s string) (stamp, rest string, ok bool) {
	if s == "" {
		return "", "", false
	}
	var closer byte
	switch s[0] {
	case '<':
		closer = '>'
	case '[':
		closer = ']'
	default:
		return "", "", false
	}
	i := strings.IndexByte(s, closer)
	if i < 0 {
		return "", "", false
	}
	return s[:i+1], s[i+1:], true
}

func parseSingleStamp(s string) (*Timestamp, bool) {
	if len(s) < 2 {
		return nil, false
	}
	kind := TimestampActive
	if s[0] == '[' {
		kind = TimestampInactive
	}
	m := timestampBodyRe.FindStringSubmatch(s[1 : len(s)-1])
	if m == nil {
		return nil, false
	}
	ts := &Timestamp{Kind: kind}
	ts.YearStart, _ = strconv.Atoi(m[1])
	ts.MonthStart, _ = strconv.Atoi(m[2])
	ts.DayStart, _ = strconv.Atoi(m[3])
	ts.Weekday = m[4]
	if m[5] != "" {
		ts.HourStart, _ = strconv.Atoi(m[5])
		ts.MinuteStart, _ = strconv.Atoi(m[6])
		ts.HasTime = true
	}
	if m[7] != "" {
		ts.HourEnd, _ = strconv.Atoi(m[7])
		ts.MinuteEnd, _ = strconv.Atoi(m[8])
		ts.HasTimeEnd = true
	}
	if m[9] != "" {
		value, _ := strconv.Atoi(m[10])
		ts.Repeater = &Repeater{Mark: m[9], Value: value, Unit: m[11]}
	}
	return ts, true
}

// String renders the canonical text form: brackets by kind, zero-padded
// date, optional weekday, optional zero-padded time, repeater, and the
// second stamp of a range after "--".
func (t *Timestamp) String() string {
	open, closer := "<", ">"
	if t.Kind == TimestampInactive {
		open, closer = "[", "]"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s%04d-%02d-%02d", open, t.YearStart, t.MonthStart, t.DayStart)
	if t.Weekday != "" {
		b.WriteString(" " + t.Weekday)
	}
	if t.HasTime {
		fmt.Fprintf(&b, " %02d:%02d", t.HourStart, t.MinuteStart)
		if t.HasTimeEnd && !t.HasEnd {
			fmt.Fprintf(&b, "-%02d:%02d", t.HourEnd, t.MinuteEnd)
		}
	}
	if t.Repeater != nil {
		b.WriteString(" " + t.Repeater.String())
	}
	b.WriteString(closer)
	if t.HasEnd {
		fmt.Fprintf(&b, "--%s%04d-%02d-%02d", open, t.YearEnd, t.MonthEnd, t.DayEnd)
		if t.HasTimeEnd {
			fmt.Fprintf(&b, " %02d:%02d", t.HourEnd, t.MinuteEnd)
		}
		b.WriteString(closer)
	}
	return b.String()
}

// Time returns the start of the timestamp as a local time.Time. Stamps
// without a time of day map to midnight.
func (t *Timestamp) Time() time.Time {
	return time.Date(t.YearStart, time.Month(t.MonthStart), t.DayStart,
		t.HourStart, t.MinuteStart, 0, 0, time.Local)
}

// EndTime returns the end of the timestamp when it has one: the second
// stamp of a date range, or the same-day end of an H:MM-H:MM range.
func (t *Timestamp) EndTime() (time.Time, bool) {
	switch {
	case t.HasEnd:
		return time.Date(t.YearEnd, time.Month(t.MonthEnd), t.DayEnd,
			t.HourEnd, t.MinuteEnd, 0, 0, time.Local), true
	case t.HasTimeEnd:
		return time.Date(t.YearStart, time.Month(t.MonthStart), t.DayStart,
			t.HourEnd, t.MinuteEnd, 0, 0, time.Local), true
	}
	return time.Time{}, false
}

// IsActive reports whether the stamp is agenda-relevant.
func (t *Timestamp) IsActive() bool { return t.Kind == TimestampActive }

// FromTime builds a timestamp from a time.Time, weekday token included.
// withTime controls whether the H:MM component is kept.
func FromTime(tm time.Time, kind TimestampKind, withTime bool) *Timestamp {
	ts := &Timestamp{
		Kind:       kind,
		YearStart:  tm.Year(),
		MonthStart: int(tm.Month()),
		DayStart:   tm.Day(),
		Weekday:    tm.Format("Mon"),
	}
	if withTime {
		ts.HourStart, ts.MinuteStart = tm.Hour(), tm.Minute()
		ts.HasTime = true
	}
	return ts
}
