package ooc

import "testing"

func TestDetectExplicitCommands(t *testing.T) {
	for _, text := range []string{
		"please stop roleplay now",
		"ok END RP",
		"let's break character for a sec",
	} {
		v := Detect(text)
		if !v.ShouldExit || v.Reason != ReasonExplicitCommand {
			t.Fatalf("Detect(%q) = %+v, want explicit-command", text, v)
		}
	}
}

func TestDetectMarkup(t *testing.T) {
	for _, text := range []string{
		"((OOC: brb))",
		"// grabbing coffee",
		"[OOC] is this thing on",
		"ooc: one moment",
	} {
		v := Detect(text)
		if !v.ShouldExit || v.Reason != ReasonOOCMarkup {
			t.Fatalf("Detect(%q) = %+v, want ooc-markup", text, v)
		}
	}
}

func TestDetectNone(t *testing.T) {
	v := Detect("*slides a mug across the bar* Rough night?")
	if v.ShouldExit || v.Reason != ReasonNone {
		t.Fatalf("Detect() = %+v, want none", v)
	}
}
