package matching

import (
	"strings"
	"testing"

	"synced-lyrics-go/services/lyrics"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "Shape Of You", "shape of you"},
		{"parenthetical", "Tauba Tauba (From \"Bad Newz\")", "tauba tauba"},
		{"bracketed", "Song [Remastered 2011]", "song"},
		{"punctuation", "Salim–Sulaiman, Sonu Nigam · Kaal", "salim sulaiman sonu nigam kaal"},
		{"underscore", "some_file_name", "some file name"},
		{"various artists", "Bollywood Hits - Various Artists", "bollywood hits"},
		{"localized credit", "Schlager Verschiedene Interpreten", "schlager"},
		{"credit inside word kept", "variousartists", "variousartists"},
		{"devanagari kept", "तन्हा तेरे बग़ैर", "तन्हा तेरे बग़ैर"},
		{"division sign kept", "a ÷ b", "a ÷ b"},
		{"whitespace", "  a   b\t c  ", "a b c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"Tanha Tere Bagair (Lofi) [Live]",
		"various various artists artists",
		"Various  Artists",
		"((nested)) (open",
		"Beyoncé – Halo · Song · 2008",
		"A_B__C!!!",
		"तन्हा, तेरे_बग़ैर!",
		"   ",
	}

	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Errorf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "halo", "halo", 100, 100},
		{"substring", "halo", "beyonce halo i am sasha fierce", 100, 100},
		{"order independent", "beyonce halo i am sasha fierce", "halo", 100, 100},
		{"empty", "", "halo", 0, 0},
		{"unrelated", "halo", "xyzw", 0, 30},
		{"one typo", "tanha tere bagair", "tanha tere bagiar sunidhi chauhan", 85, 99.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PartialRatio(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("PartialRatio(%q, %q) = %.2f, want in [%.1f, %.1f]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	local := lyrics.Track{Title: "Tanha Tere Bagair", Artist: "Sunidhi Chauhan", Album: "Unplugged"}

	tests := []struct {
		name      string
		track     lyrics.Track
		remote    string
		threshold float64
		expected  bool
	}{
		{"title and artist", local, "Tanha Tere Bagair - Sunidhi Chauhan", 70, true},
		{"title and album", local, "Tanha Tere Bagair · Unplugged · Song · 2016", 70, true},
		{"title only", local, "Tanha Tere Bagair · Someone Else", 70, false},
		{"artist only", local, "Another Song - Sunidhi Chauhan", 70, false},
		{"missing title", lyrics.Track{Artist: "Sunidhi Chauhan"}, "Sunidhi Chauhan", 70, false},
		{"empty remote", local, "", 60, false},
		{"missing artist, album corroborates", lyrics.Track{Title: "Hello", Album: "25"}, "Hello Adele 25", 70, true},
		{"missing artist and album", lyrics.Track{Title: "Hello"}, "Hello Adele 25", 70, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.track, tt.remote, tt.threshold); got != tt.expected {
				t.Errorf("Verify() = %v, want %v (scores %+v)", got, tt.expected, Score(tt.track, tt.remote))
			}
		})
	}
}

func TestVerify_CaseAndPunctuationInsensitive(t *testing.T) {
	local := lyrics.Track{Title: "Halo", Artist: "Beyoncé", Album: "I Am... Sasha Fierce"}
	remotes := []string{
		"Halo by Beyoncé",
		"Halo · I Am... Sasha Fierce · Song · 2008",
		"Irreplaceable - Beyoncé",
		"Completely different",
	}

	for _, remote := range remotes {
		lower := Verify(local, remote, 70)
		upper := Verify(local, strings.ToUpper(remote), 70)
		if lower != upper {
			t.Errorf("Verify differs by case for %q: %v vs %v", remote, lower, upper)
		}
		if punct := Verify(local, strings.ReplaceAll(remote, " ", " ,. "), 70); punct != lower {
			t.Errorf("Verify differs by punctuation for %q: %v vs %v", remote, lower, punct)
		}
	}
}

func TestBuildQuery(t *testing.T) {
	track := lyrics.Track{Title: "Dhak Dhak", Artist: "Aanchal Tyagi", Album: "Dhak Dhak (From \"Film\")"}

	tests := []struct {
		name     string
		track    lyrics.Track
		policy   TagPolicy
		expected string
	}{
		{"album embeds title", track, AllTags, "dhak dhak aanchal tyagi"},
		{"omit artist", lyrics.Track{Title: "Halo", Artist: "Beyoncé", Album: "Fierce"}, TagPolicy{Title: true, Album: true}, "halo fierce"},
		{"omit album", lyrics.Track{Title: "Halo", Artist: "Beyoncé", Album: "Fierce"}, TagPolicy{Title: true, Artist: true}, "halo beyoncé"},
		{"missing tags", lyrics.Track{Title: "Halo"}, AllTags, "halo"},
		{"compilation album", lyrics.Track{Title: "Halo", Artist: "Beyoncé", Album: "Various Artists"}, AllTags, "halo beyoncé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQuery(tt.track, tt.policy); got != tt.expected {
				t.Errorf("BuildQuery() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseTagPolicy(t *testing.T) {
	p, err := ParseTagPolicy([]string{"Title", "album"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Title || p.Artist || !p.Album {
		t.Errorf("unexpected policy %+v", p)
	}

	if _, err := ParseTagPolicy([]string{"genre"}); err == nil {
		t.Error("Expected error for unknown tag")
	}
	if _, err := ParseTagPolicy(nil); err == nil {
		t.Error("Expected error for empty policy")
	}
}
