package org

import (
	"regexp"
	"strings"
)

// lineKind classifies a single source line. Classification is line-local;
// the parser combines it with the open block and drawer state, treating
// the interior of verbatim regions as opaque.
type lineKind int

const (
	lineText lineKind = iota
	lineBlank
	lineHeadline
	linePlanning
	lineKeyword
	lineComment
	lineBlockBegin
	lineBlockEnd
	lineDrawerBegin
	lineDrawerEnd
	lineTableSep
	lineTableRow
	lineClock
)

var (
	headlineRe     = regexp.MustCompile(`^(\*+)\s+(.*)$`)
	planningRe     = regexp.MustCompile(`^\s*(SCHEDULED|DEADLINE|CLOSED):`)
	planningItemRe = regexp.MustCompile(`(SCHEDULED|DEADLINE|CLOSED):\s*`)
	keywordRe      = regexp.MustCompile(`^\s*#\+(\w+):(?:\s+(.*?))?\s*$`)
	blockBeginRe   = regexp.MustCompile(`(?i)^\s*#\+BEGIN_(\w+)(?:\s+(.*?))?\s*$`)
	blockEndRe     = regexp.MustCompile(`(?i)^\s*#\+END_(\w+)\s*$`)
	commentRe      = regexp.MustCompile(`^\s*#(?:\s+(.*))?$`)
	drawerBeginRe  = regexp.MustCompile(`^\s*:([\w@-]+):\s*$`)
	drawerEndRe    = regexp.MustCompile(`(?i)^\s*:END:\s*$`)
	tableSepRe     = regexp.MustCompile(`^\s*\|-`)
	clockRe        = regexp.MustCompile(`^\s*CLOCK:\s*(.*?)\s*$`)
	priorityRe     = regexp.MustCompile(`^\[#([A-Za-z0-9])\]\s*`)
	tagsRe         = regexp.MustCompile(`^(.*?)\s+(:[\w@%#:]+:)\s*$`)
	allTagsRe      = regexp.MustCompile(`^:[\w@%#:]+:$`)
)

// line is one classified source line.
type line struct {
	kind    lineKind
	raw     string
	matches []string
}

// classifyLine assigns a line-local kind. Order matters: fences and
// keywords share the #+ prefix, :END: also matches the generic drawer
// opener, and a separator row is a special table row.
func classifyLine(raw string) line {
	if strings.TrimSpace(raw) == "" {
		return line{kind: lineBlank, raw: raw}
	}
	if m := headlineRe.FindStringSubmatch(raw); m != nil {
		return line{kind: lineHeadline, raw: raw, matches: m}
	}
	if m := blockBeginRe.FindStringSubmatch(raw); m != nil {
		return line{kind: lineBlockBegin, raw: raw, matches: m}
	}
	if m := blockEndRe.FindStringSubmatch(raw); m != nil {
		return line{kind: lineBlockEnd, raw: raw, matches: m}
	}
	if m := keywordRe.FindStringSubmatch(raw); m != nil {
		return line{kind: lineKeyword, raw: raw, matches: m}
	}
	if m := commentRe.FindStringSubmatch(raw); m != nil {
		return line{kind: lineComment, raw: raw, matches: m}
	}
	if planningRe.MatchString(raw) {
		return line{kind: linePlanning, raw: raw}
	}
	if m := clockRe.FindStringSubmatch(raw); m != nil {
		return line{kind: lineClock, raw: raw, matches: m}
	}
	if drawerEndRe.MatchString(raw) {
		return line{kind: lineDrawerEnd, raw: raw}
	}
	if m := drawerBeginRe.FindStringSubmatch(raw); m != nil {
		return line{kind: lineDrawerBegin, raw: raw, matches: m}
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "|") {
		if tableSepRe.MatchString(raw) {
			return line{kind: lineTableSep, raw: raw}
		}
		return line{kind: lineTableRow, raw: raw}
	}
	return line{kind: lineText, raw: raw}
}
