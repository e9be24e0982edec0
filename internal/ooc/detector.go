// Package ooc detects explicit stop commands and out-of-character markup.
//
// Its verdict is only acted on while no session is active: it suppresses a
// session that is about to start. An active session ignores these triggers
// so a stray out-of-character aside cannot break immersion; only a director
// scene-end or the inactivity timeout ends an active session.
package ooc

import (
	"regexp"
	"strings"
)

// Reason explains an exit verdict.
type Reason string

const (
	ReasonNone            Reason = "none"
	ReasonExplicitCommand Reason = "explicit-command"
	ReasonOOCMarkup       Reason = "ooc-markup"
)

// Verdict is the detector output.
type Verdict struct {
	ShouldExit bool
	Reason     Reason
}

var stopPhrases = []string{
	"stop roleplay",
	"stop the roleplay",
	"end roleplay",
	"end the roleplay",
	"exit roleplay",
	"drop character",
	"break character",
	"stop rp",
	"end rp",
}

var (
	doubleParenRe = regexp.MustCompile(`\(\([^)]*\)\)`)
	slashLineRe   = regexp.MustCompile(`(?m)^\s*//`)
	oocTagRe      = regexp.MustCompile(`(?i)\[\s*ooc\s*\]`)
	oocPrefixRe   = regexp.MustCompile(`(?i)^\s*ooc\s*:`)
)

// Detect scans text for exit conditions. Explicit commands are literal
// substring matches; markup covers ((double parens)), //-prefixed lines,
// [ooc] tags, and an "ooc:" prefix.
func Detect(text string) Verdict {
	lower := strings.ToLower(text)
	for _, phrase := range stopPhrases {
		if strings.Contains(lower, phrase) {
			return Verdict{ShouldExit: true, Reason: ReasonExplicitCommand}
		}
	}
	if doubleParenRe.MatchString(text) ||
		slashLineRe.MatchString(text) ||
		oocTagRe.MatchString(text) ||
		oocPrefixRe.MatchString(text) {
		return Verdict{ShouldExit: true, Reason: ReasonOOCMarkup}
	}
	return Verdict{Reason: ReasonNone}
}
