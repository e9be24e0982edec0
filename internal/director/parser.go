// Package director parses scene-control posts: messages carrying the fixed
// director tag that can start a roleplay session, end one, or speak through
// the agent verbatim.
package director

import (
	"regexp"
	"strings"

	"github.com/jarlvik/barkeep/internal/extract"
)

// Tag marks a director-authored post.
const Tag = "[DGM]"

// Action classifies what a director post does.
type Action string

const (
	ActionPuppet   Action = "puppet"
	ActionSceneEnd Action = "scene-end"
	ActionSceneSet Action = "scene-set"
)

// Post is the parsed view of a director post. A non-director message yields
// the zero value with IsDirectorPost=false.
type Post struct {
	IsDirectorPost   bool
	Action           Action
	TriggersRoleplay bool
	Confidence       float64
	Characters       []string
	PuppetText       string
}

var sceneEndPhrases = []string{
	"end scene",
	"fade to black",
	"scene over",
	"that's a wrap",
	"curtain falls",
	"--end--",
}

var (
	nameListRe   = regexp.MustCompile(`(\p{Lu}[\p{L}'-]+)(?:\s*,\s*|\s+and\s+)(\p{Lu}[\p{L}'-]+)`)
	rankedNameRe = regexp.MustCompile(`\b(?:Captain|Commander|Lady|Lord|Sir|Dame|Doctor|Sergeant|Master)\s+(\p{Lu}[\p{L}'-]+)`)
	entranceRe   = regexp.MustCompile(`\b(\p{Lu}[\p{L}'-]+)\s+(?:enters?|arrives?|walks\s+in|steps\s+in|strides\s+in|appears|joins|sits\s+down|approaches)\b`)
	bracketedRe  = regexp.MustCompile(`\[([^\[\]]{1,64})\]`)
	quotedRe     = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
)

// Parse classifies a message as a director post. The agent identity is used
// to recognize puppet posts, where the director speaks through the agent.
//
// A tag with an unparseable body is still a director post: it defaults to a
// scene-set with an empty cast rather than an error.
func Parse(text string, agent extract.Identity) Post {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(strings.ToUpper(trimmed), Tag) {
		return Post{}
	}
	body := strings.TrimSpace(trimmed[len(Tag):])

	lower := strings.ToLower(body)
	for _, phrase := range sceneEndPhrases {
		if strings.Contains(lower, phrase) {
			// Scene-end wins over everything else in the post.
			return Post{
				IsDirectorPost: true,
				Action:         ActionSceneEnd,
				Confidence:     1.0,
			}
		}
	}

	if agent.Name != "" && taggedAgent(body, agent) {
		return Post{
			IsDirectorPost:   true,
			Action:           ActionPuppet,
			TriggersRoleplay: true,
			Confidence:       1.0,
			PuppetText:       puppetText(body, agent),
		}
	}

	return Post{
		IsDirectorPost:   true,
		Action:           ActionSceneSet,
		TriggersRoleplay: true,
		Confidence:       1.0,
		Characters:       castList(body),
	}
}

// taggedAgent reports whether the body explicitly tags the agent in
// brackets.
func taggedAgent(body string, agent extract.Identity) bool {
	for _, m := range bracketedRe.FindAllStringSubmatch(body, -1) {
		if agent.Matches(m[1]) {
			return true
		}
	}
	return false
}

// puppetText extracts the literal line the agent must say: the quoted span
// if present, otherwise everything after the agent tag.
func puppetText(body string, agent extract.Identity) string {
	if m := quotedRe.FindStringSubmatch(body); m != nil {
		if m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[2])
	}
	for _, idx := range bracketedRe.FindAllStringSubmatchIndex(body, -1) {
		tag := body[idx[2]:idx[3]]
		if agent.Matches(tag) {
			return strings.TrimSpace(body[idx[1]:])
		}
	}
	return strings.TrimSpace(body)
}

// castList pulls character names out of free scene-setting text, in
// precedence order: "X and Y" / "X, Y" lists, rank-prefixed names, names
// adjacent to entrance verbs, bracketed names. Candidates are re-validated
// by the name rules and deduplicated case-insensitively.
func castList(body string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		name, ok := extract.ValidName(raw)
		if !ok {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}

	for _, m := range nameListRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
		add(m[2])
	}
	for _, m := range rankedNameRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range entranceRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range bracketedRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
