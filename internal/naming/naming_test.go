package naming

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Show: Part 1/2":  "Show_ Part 1_2",
		"  spaced  ":      "spaced",
		"a***b":           "a_b",
		"keep-this_ok.v2": "keep-this_ok.v2",
		"ünïcode":         "_n_code",
	}
	for input, want := range cases {
		if got := SanitizeFileName(input); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuilderBuild(t *testing.T) {
	b := Builder{Prefix: "[RP] ", Suffix: "-x264", MetaTags: []string{"WEB", "AAC 2.0"}}
	got := b.Build("show_E3", "720p", "")
	want := "_RP_ show_E3.WEB.AAC 2.0.720p-x264.mp4"
	if got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}

	plain := Builder{}.Build("show_E3", "original", "MKV")
	if plain != "show_E3.original.mkv" {
		t.Fatalf("Build = %q", plain)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("My Show!"); got != "my_show" {
		t.Fatalf("SanitizeToken = %q", got)
	}
	if got := SanitizeToken("  "); got != "unknown" {
		t.Fatalf("SanitizeToken(empty) = %q", got)
	}
}
