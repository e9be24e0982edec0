package extract

import "testing"

func TestValidNameRules(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"[Fallo]", "Fallo", true},
		{"Maeve", "Maeve", true},
		{"Ásgeir", "Ásgeir", true},
		{"Þórdís", "Þórdís", true},
		{"anna-lísa", "", false}, // lowercase first letter
		{"Anna-lísa", "Anna-Lísa", true},
		{"O'brien", "O'Brien", true},
		{"X", "", false},    // too short
		{"The", "", false},  // stop word
		{"says", "", false}, // stop word, lowercase
		{"R2D2", "", false}, // digits not allowed
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ValidName(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ValidName(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNamesFromTagsActionsAndVerbs(t *testing.T) {
	got := Names(`[Fallo] *Maeve pours a drink* Eirik says nothing.`)
	want := []string{"Fallo", "Maeve", "Eirik"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNamesDeduplicatesCaseInsensitively(t *testing.T) {
	got := Names(`[Maeve] *MAEVE laughs*`)
	if len(got) != 1 || got[0] != "Maeve" {
		t.Fatalf("Names() = %v, want [Maeve]", got)
	}
}

func TestNamesNoMatchIsEmptyNotError(t *testing.T) {
	if got := Names("just some lowercase chatter about the bar"); len(got) != 0 {
		t.Fatalf("Names() = %v, want empty", got)
	}
}

func TestSpeakerName(t *testing.T) {
	if got := SpeakerName("[Tavi] raises her mug"); got != "Tavi" {
		t.Fatalf("SpeakerName() = %q, want Tavi", got)
	}
	if got := SpeakerName("no tag here"); got != "" {
		t.Fatalf("SpeakerName() = %q, want empty", got)
	}
}

func TestAddressedPatterns(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello Maeve, lovely evening", "Maeve"},
		{"Maeve, what do you think?", "Maeve"},
		{"I'd trust him with my life, Fallo.", "Fallo"},
		{"what do you think, Tavi?", "Tavi"},
		{"*turns to Eirik with a frown*", "Eirik"},
		{"*looks at the Barkeep expectantly*", "Barkeep"},
	}
	for _, c := range cases {
		got := Addressed(c.in)
		if len(got) != 1 || got[0] != c.want {
			t.Fatalf("Addressed(%q) = %v, want [%s]", c.in, got, c.want)
		}
	}
	if got := Addressed("nothing directed at anyone here"); len(got) != 0 {
		t.Fatalf("Addressed() = %v, want empty", got)
	}
}

func TestIdentityMatching(t *testing.T) {
	id := Identity{Name: "Brynhild", Aliases: []string{"barkeep", "bartender"}}
	if !id.Matches("[Brynhild]") || !id.Matches("BARKEEP") {
		t.Fatalf("Matches should cover bracketed name and aliases")
	}
	if id.Matches("Maeve") {
		t.Fatalf("Matches should reject other names")
	}
	if !id.MentionedIn("Another ale, barkeep!") {
		t.Fatalf("MentionedIn should find the alias")
	}
	if id.MentionedIn("nobody here by that name") {
		t.Fatalf("MentionedIn should be false without a mention")
	}
}
