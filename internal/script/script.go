// Package script splits normalized source text into role-tagged
// paragraphs and source tokens for caption timing.
package script

import (
	"regexp"
	"strings"

	"github.com/narrokit/narro/internal/textnorm"
)

// speaking role for a paragraph
type Role string

const (
	RoleNarration Role = "narration"
	RoleMale      Role = "male"
	RoleFemale    Role = "female"
	RoleBoy       Role = "boy"
	RoleGirl      Role = "girl"
)

// marker shorthands accepted inside [...] lines, case-insensitive
var shorthandToRole = map[string]Role{
	"n":         RoleNarration,
	"narration": RoleNarration,
	"独白":        RoleNarration,
	"独":         RoleNarration,
	"m":         RoleMale,
	"male":      RoleMale,
	"男":         RoleMale,
	"f":         RoleFemale,
	"female":    RoleFemale,
	"女":         RoleFemale,
	"b":         RoleBoy,
	"boy":       RoleBoy,
	"童男":        RoleBoy,
	"g":         RoleGirl,
	"girl":      RoleGirl,
	"童女":        RoleGirl,
}

var (
	markerRe = regexp.MustCompile(`^\[(.+)\]$`)

	// leading [M]: or [男]: prefix on a content line
	prefixRe = regexp.MustCompile(`(?i)^\s*\[(n|m|f|b|g|narration|male|female|boy|girl|独白|独|男|女|童男|童女)\]\s*:?\s*`)
)

// one ordered unit of source text with its speaking role
type Paragraph struct {
	Index int
	Role  Role
	Text  string
}

// a minimal caption unit from the source text
type Token struct {
	Text      string
	Paragraph int
	Position  int
}

// ParseMarker reports the role selected by a line consisting solely of
// a recognized role marker. ok is false for anything else, including
// marker-like lines with unknown codes.
func ParseMarker(line string) (Role, bool) {
	m := markerRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	key := strings.ToLower(strings.TrimSpace(m[1]))
	role, ok := shorthandToRole[key]
	return role, ok
}

// stripRolePrefix removes a leading [M]:-style prefix and returns the
// role it names. ok is false when the line carries no such prefix.
func stripRolePrefix(line string) (string, Role, bool) {
	loc := prefixRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return line, "", false
	}
	key := strings.ToLower(line[loc[2]:loc[3]])
	role, ok := shorthandToRole[key]
	if !ok {
		return line, "", false
	}
	return strings.TrimSpace(line[loc[1]:]), role, true
}

// Segment scans normalized text line by line and produces role-tagged
// paragraphs. A marker line switches the current role for everything
// that follows and emits no paragraph; a leading [M]:-style prefix
// overrides the role for that paragraph only. Unrecognized marker-like
// lines are ordinary text.
func Segment(text string) []Paragraph {
	var paragraphs []Paragraph
	current := RoleNarration

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if role, ok := ParseMarker(line); ok {
			current = role
			continue
		}

		role := current
		if rest, prefixRole, ok := stripRolePrefix(line); ok {
			if rest == "" {
				// a bare "[M]:" line carries no content; treat it as
				// a marker rather than speaking the prefix itself
				current = prefixRole
				continue
			}
			line = rest
			role = prefixRole
		}

		paragraphs = append(paragraphs, Paragraph{
			Index: len(paragraphs),
			Role:  role,
			Text:  line,
		})
	}

	return paragraphs
}

// Tokens flattens paragraphs into the ordered source token sequence,
// with annotation markers removed.
func Tokens(paragraphs []Paragraph) []Token {
	var tokens []Token
	for _, p := range paragraphs {
		clean := textnorm.StripMarkers(p.Text)
		for pos, field := range strings.Fields(clean) {
			tokens = append(tokens, Token{
				Text:      field,
				Paragraph: p.Index,
				Position:  pos,
			})
		}
	}
	return tokens
}
