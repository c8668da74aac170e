// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// =============================================================================
// PATTERNS (compiled once)
// =============================================================================

var (
	// costPattern matches "$0.0086 session" and "$12 session"
	costPattern = regexp.MustCompile(`\$(\d+\.?\d*)\s*session`)

	// markupPattern matches allowlisted console markup tags such as [bold], [/red]
	// and [/]. Names outside the list, like [unknown_tag], are left alone.
	markupPattern = regexp.MustCompile(`\[/?(?:blue|red|green|yellow|bold|dim|italic|underline|strike|reverse|blink|/)*\]`)
)

// markdownIndicators are substrings that suggest a line carries markdown.
var markdownIndicators = []string{"**", "__", "`", "```", "##", "- ", "* ", "1. "}

// ansiIntroducer starts every ANSI escape sequence.
const ansiIntroducer = "\x1b"

// =============================================================================
// HELPERS
// =============================================================================

// ParseCost extracts the session cost from a line such as
// "Cost: $0.0012 message, $0.0086 session". ok is false when the line has no
// cost or the amount does not parse.
func ParseCost(line string) (cost float64, ok bool) {
	match := costPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	cost, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return cost, true
}

// StripMarkup removes allowlisted style tags and leaves every other bracketed
// token untouched.
func StripMarkup(line string) string {
	return markupPattern.ReplaceAllString(line, "")
}

// HasANSI reports whether line contains an escape sequence introducer.
func HasANSI(line string) bool {
	return strings.Contains(line, ansiIntroducer)
}

// HasMarkdown reports whether line contains any markdown indicator.
func HasMarkdown(line string) bool {
	for _, indicator := range markdownIndicators {
		if strings.Contains(line, indicator) {
			return true
		}
	}
	return false
}

// KeepSGR drops every control sequence in line except SGR styling
// (ESC [ ... m). Cursor movement, screen and line erasure, OSC titles and bare
// control characters such as \r would otherwise redraw parts of the
// surrounding UI. Tabs are kept.
func KeepSGR(line string) string {
	var b strings.Builder
	b.Grow(len(line))

	var state byte
	for len(line) > 0 {
		seq, width, n, newState := ansi.DecodeSequence(line, state, nil)
		if n <= 0 {
			break
		}
		state = newState
		line = line[n:]

		if width > 0 || seq == "\t" || isSGR(seq) {
			b.WriteString(seq)
		}
	}
	return b.String()
}

// isSGR reports whether seq is a complete Select Graphic Rendition sequence.
func isSGR(seq string) bool {
	var params string
	switch {
	case strings.HasPrefix(seq, "\x1b["):
		params = seq[2:]
	case strings.HasPrefix(seq, "\x9b"):
		params = seq[1:]
	default:
		return false
	}
	if !strings.HasSuffix(params, "m") {
		return false
	}
	params = params[:len(params)-1]
	return strings.Trim(params, "0123456789;:") == ""
}

// trimRendered removes trailing padding from each rendered row and drops
// blank rows before and after the content.
func trimRendered(rendered string) string {
	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}

	blank := func(line string) bool {
		return strings.TrimSpace(ansi.Strip(line)) == ""
	}
	for len(lines) > 0 && blank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && blank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
