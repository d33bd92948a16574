package org

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockEntry is one logged CLOCK: interval under a headline.
type ClockEntry struct {
	Start *Timestamp
	// End is nil while the clock is still running.
	End *Timestamp
	// Duration is the trailing "H:MM" field as written, empty for a
	// running clock.
	Duration string
}

// Minutes returns the logged duration in minutes, parsed from the
// Duration field. Running clocks report zero.
func (c ClockEntry) Minutes() int {
	m, ok := ParseClockDuration(c.Duration)
	if !ok {
		return 0
	}
	return m
}

// Running reports whether the entry has no end stamp yet.
func (c ClockEntry) Running() bool { return c.End == nil }

// ParseClockDuration parses an "H:MM" duration into minutes. Hours carry
// no upper bound; durations such as "26:03" are routine in clock tables.
func ParseClockDuration(s string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// FormatDuration renders minutes as "H:MM" with the hour part unpadded,
// so 1563 minutes come out as "26:03".
func FormatDuration(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%d:%02d", sign, minutes/60, minutes%60)
}

// NewClockEntry builds a closed clock entry, deriving the duration from
// the two stamps.
func NewClockEntry(start, end *Timestamp) ClockEntry {
	entry := ClockEntry{Start: start, End: end}
	if start != nil && end != nil {
		minutes := int(end.Time().Sub(start.Time()).Minutes())
		entry.Duration = FormatDuration(minutes)
	}
	return entry
}

// ClockIn appends a running clock entry starting at ts.
func ClockIn(h *Headline, ts *Timestamp) {
	h.Clocks = append(h.Clocks, ClockEntry{Start: ts})
}

// ClockOut closes the most recent running entry, computing its duration.
// It reports false when no clock is running.
func ClockOut(h *Headline, ts *Timestamp) bool {
	for i := len(h.Clocks) - 1; i >= 0; i-- {
		if h.Clocks[i].Running() {
			h.Clocks[i] = NewClockEntry(h.Clocks[i].Start, ts)
			return true
		}
	}
	return false
}

// TotalClockTime sums the clock durations of h in minutes. With recursive
// set it also includes every descendant's entries; otherwise only h's own
// log counts. Running clocks contribute nothing until closed.
func TotalClockTime(h *Headline, recursive bool) int {
	total := 0
	for _, c := range h.Clocks {
		total += c.Minutes()
	}
	if recursive {
		for _, child := range h.Children {
			total += TotalClockTime(child, true)
		}
	}
	return total
}
