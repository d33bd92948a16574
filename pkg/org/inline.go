package org

import (
	"regexp"
	"strings"
)

var (
	linkRe        = regexp.MustCompile(`\[\[([^\[\]]+)\](?:\[([^\[\]]*)\])?\]`)
	inlineStampRe = regexp.MustCompile(`[<\[]\d{4}-\d{1,2}-\d{1,2}[^<>\[\]\n]*[>\]]`)
)

// knownProtocols are link schemes that keep their own name as the link
// type; any other scheme collapses to "generic".
var knownProtocols = map[string]struct{}{
	"http":   {},
	"https":  {},
	"file":   {},
	"mailto": {},
	"id":     {},
}

// LinkProtocol infers the link type from a target: recognized schemes
// pass through, unrecognized schemes map to "generic", path-like targets
// without a scheme are "file", and everything else is "internal".
func LinkProtocol(path string) string {
	if i := strings.Index(path, ":"); i > 0 {
		scheme := strings.ToLower(path[:i])
		if _, ok := knownProtocols[scheme]; ok {
			return scheme
		}
		return "generic"
	}
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "./") ||
		strings.HasPrefix(path, "../") || strings.HasPrefix(path, "~") {
		return "file"
	}
	return "internal"
}

// scanInline extracts [[target][description]] links and timestamps from a
// text span. The surrounding prose is left untouched; inline elements are
// indexed, not cut out.
func scanInline(text string) ([]*Link, []*Timestamp) {
	var links []*Link
	for _, m := range linkRe.FindAllStringSubmatch(text, -1) {
		links = append(links, &Link{
			Protocol:    LinkProtocol(m[1]),
			Path:        m[1],
			Description: m[2],
		})
	}
	return links, scanTimestamps(text)
}

// scanTimestamps finds parseable angle or bracket stamps, stitching
// "<a>--<b>" ranges back into one timestamp. Candidates that fail to
// parse stay prose.
func scanTimestamps(text string) []*Timestamp {
	var stamps []*Timestamp
	locs := inlineStampRe.FindAllStringIndex(text, -1)
	for i := 0; i < len(locs); i++ {
		if i+1 < len(locs) && locs[i+1][0] == locs[i][1]+2 &&
			text[locs[i][1]:locs[i+1][0]] == "--" {
			if ts, ok := ParseTimestamp(text[locs[i][0]:locs[i+1][1]]); ok {
				stamps = append(stamps, ts)
				i++
				continue
			}
		}
		if ts, ok := ParseTimestamp(text[locs[i][0]:locs[i][1]]); ok {
			stamps = append(stamps, ts)
		}
	}
	return stamps
}
