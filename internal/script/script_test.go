package script

import (
	"strings"
	"testing"

	"github.com/narrokit/narro/internal/textnorm"
)

func TestSegmentRoleMarkers(t *testing.T) {
	text := "[男]\nHello there.\n[女]\nHi!"
	paragraphs := Segment(text)

	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0].Role != RoleMale || paragraphs[0].Text != "Hello there." {
		t.Errorf("paragraph 0: got (%s, %q)", paragraphs[0].Role, paragraphs[0].Text)
	}
	if paragraphs[1].Role != RoleFemale || paragraphs[1].Text != "Hi!" {
		t.Errorf("paragraph 1: got (%s, %q)", paragraphs[1].Role, paragraphs[1].Text)
	}
}

func TestSegmentDefaultRoleBeforeFirstMarker(t *testing.T) {
	paragraphs := Segment("An opening line.\n[m]\nA tagged line.")
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0].Role != RoleNarration {
		t.Errorf("expected narration before first marker, got %s", paragraphs[0].Role)
	}
}

func TestSegmentRolePersistsUntilNextMarker(t *testing.T) {
	paragraphs := Segment("[F]\nFirst line.\nSecond line.\n[B]\nThird line.")
	if len(paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0].Role != RoleFemale || paragraphs[1].Role != RoleFemale {
		t.Errorf("role did not persist: %s, %s", paragraphs[0].Role, paragraphs[1].Role)
	}
	if paragraphs[2].Role != RoleBoy {
		t.Errorf("expected boy after marker, got %s", paragraphs[2].Role)
	}
}

func TestSegmentUnknownMarkerIsText(t *testing.T) {
	paragraphs := Segment("[applause]\nHello.")
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0].Text != "[applause]" || paragraphs[0].Role != RoleNarration {
		t.Errorf("unknown marker mishandled: (%s, %q)", paragraphs[0].Role, paragraphs[0].Text)
	}
}

func TestSegmentLeadingPrefixAppliesToOneParagraph(t *testing.T) {
	paragraphs := Segment("[girl]\nShe waved.\n[M]: Morning, he said.\nShe waved again.")
	if len(paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[1].Role != RoleMale {
		t.Errorf("prefix role not applied, got %s", paragraphs[1].Role)
	}
	if paragraphs[1].Text != "Morning, he said." {
		t.Errorf("prefix not stripped: %q", paragraphs[1].Text)
	}
	if paragraphs[2].Role != RoleGirl {
		t.Errorf("marker role should resume after prefix, got %s", paragraphs[2].Role)
	}
}

func TestSegmentBarePrefixActsAsMarker(t *testing.T) {
	paragraphs := Segment("[M]:\nMorning, he said.\nStill him.")
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paragraphs))
	}
	// a prefix with nothing after it must never be spoken
	for _, p := range paragraphs {
		if p.Text == "[M]:" {
			t.Fatalf("bare prefix emitted as text")
		}
	}
	if paragraphs[0].Role != RoleMale {
		t.Errorf("bare prefix should switch role, got %s", paragraphs[0].Role)
	}
	if paragraphs[1].Role != RoleMale {
		t.Errorf("bare prefix role should persist, got %s", paragraphs[1].Role)
	}
}

func TestSegmentIndexesAreOrdinal(t *testing.T) {
	paragraphs := Segment("one\n\ntwo\n[f]\nthree")
	for i, p := range paragraphs {
		if p.Index != i {
			t.Errorf("paragraph %d has index %d", i, p.Index)
		}
	}
}

func TestParseMarkerCaseInsensitive(t *testing.T) {
	role, ok := ParseMarker("  [Female] ")
	if !ok || role != RoleFemale {
		t.Errorf("expected female marker, got (%s, %v)", role, ok)
	}
}

func TestParseMarkerRejectsContentLines(t *testing.T) {
	if _, ok := ParseMarker("[m] said nothing"); ok {
		t.Error("line with trailing content must not be a marker")
	}
}

func TestTokensStripAnnotationMarkers(t *testing.T) {
	paragraphs := []Paragraph{{Index: 0, Role: RoleNarration, Text: "the ^mound by 「the」 river"}}
	tokens := Tokens(paragraphs)
	var words []string
	for _, tok := range tokens {
		words = append(words, tok.Text)
	}
	got := strings.Join(words, " ")
	if got != "the mound by the river" {
		t.Errorf("unexpected token stream: %q", got)
	}
}

func TestTokensReconstructNormalizedText(t *testing.T) {
	source := textnorm.Normalize("Old myths,pointed the way.\nNobody believed them.")
	paragraphs := Segment(source)
	tokens := Tokens(paragraphs)

	var parts []string
	for _, p := range paragraphs {
		var words []string
		for _, tok := range tokens {
			if tok.Paragraph == p.Index {
				words = append(words, tok.Text)
			}
		}
		parts = append(parts, strings.Join(words, " "))
	}
	if got := strings.Join(parts, "\n"); got != source {
		t.Errorf("tokens do not reconstruct source:\n%q\n%q", got, source)
	}
}

func TestTokenPositionsResetPerParagraph(t *testing.T) {
	tokens := Tokens([]Paragraph{
		{Index: 0, Text: "a b"},
		{Index: 1, Text: "c"},
	})
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if tokens[2].Paragraph != 1 || tokens[2].Position != 0 {
		t.Errorf("token 2: got paragraph %d position %d", tokens[2].Paragraph, tokens[2].Position)
	}
}

func TestVoiceForMappedRole(t *testing.T) {
	voices := DefaultVoices()
	if v := voices.Voice(RoleGirl, 7); v != "en-US-AnaNeural" {
		t.Errorf("unexpected girl voice: %s", v)
	}
}

func TestNarrationVoiceAlternatesByDay(t *testing.T) {
	voices := DefaultVoices()
	if v := voices.Voice(RoleNarration, 1); v != "en-US-ChristopherNeural" {
		t.Errorf("odd day should be male voice, got %s", v)
	}
	if v := voices.Voice(RoleNarration, 2); v != "en-US-JennyNeural" {
		t.Errorf("even day should be female voice, got %s", v)
	}
}
