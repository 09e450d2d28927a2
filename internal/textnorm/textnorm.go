// Package textnorm rewrites source text so that whitespace tokenization
// agrees with the segmentation the speech service produces.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	// caret joiner glued to the previous word: our^exploration
	joinerRe = regexp.MustCompile(`([^\s^])\^`)

	// punctuation immediately followed by a word character: viral.I, myths,pointed
	punctRe = regexp.MustCompile(`([,.;:!?])([a-zA-Z0-9])`)

	caretPrefixRe = regexp.MustCompile(`\^([a-zA-Z])`)

	markerReplacer = strings.NewReplacer(
		"「", "", "」", "",
		"【", "", "】", "",
		"[", "", "]", "",
		"{", "", "}", "",
	)
)

// Normalize applies the spacing rules that keep the source tokenization
// in step with the synthesizer's. It is idempotent and never fails;
// text with no matching pattern passes through unchanged.
func Normalize(text string) string {
	if text == "" {
		return text
	}
	text = joinerRe.ReplaceAllString(text, "$1 ^")
	text = punctRe.ReplaceAllString(text, "$1 $2")
	return text
}

// StripMarkers removes vocabulary annotation characters (bracket pairs
// and the caret prefix) while keeping the annotated words themselves.
func StripMarkers(text string) string {
	if text == "" {
		return text
	}
	text = markerReplacer.Replace(text)
	return caretPrefixRe.ReplaceAllString(text, "$1")
}
