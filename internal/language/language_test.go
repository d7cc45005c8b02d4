package language

import (
	"reflect"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"spa", "es"},
		{"fra", "fr"},
		{"fre", "fr"},
		{"ger", "de"},
		{"chi", "zh"},
		{"jpn", "ja"},
		{"english", "en"},
		{"French", "fr"},
		{"und", "und"},
		{"", "und"},
		{"  ", "und"},
		{"not-a-language", "not-a-language"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Canonical(tt.input); got != tt.expected {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAllowed(t *testing.T) {
	allow := []string{"en", "JA"}
	tests := []struct {
		code string
		want bool
	}{
		{"eng", true},
		{"EN", true},
		{"jpn", true},
		{"fre", false},
		{"", false},
		{"und", false},
	}
	for _, tt := range tests {
		if got := Allowed(allow, tt.code); got != tt.want {
			t.Errorf("Allowed(%v, %q) = %v, want %v", allow, tt.code, got, tt.want)
		}
	}

	if !Allowed([]string{"und"}, "") {
		t.Error("expected untagged stream allowed when und is listed")
	}
	if Allowed(nil, "en") {
		t.Error("expected empty allow-list to reject")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("eng"); got != "English" {
		t.Errorf("DisplayName(eng) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Errorf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("not-a-language"); got != "NOT-A-LANGUAGE" {
		t.Errorf("DisplayName(unknown) = %q", got)
	}
}

func TestExtractFromTags(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"nil", nil, ""},
		{"lowercase key", map[string]string{"language": "ENG"}, "eng"},
		{"uppercase key", map[string]string{"LANGUAGE": "fre"}, "fre"},
		{"nul padded", map[string]string{"lang": "jpn\u0000"}, "jpn"},
		{"blank", map[string]string{"language": "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFromTags(tt.tags); got != tt.want {
				t.Errorf("ExtractFromTags = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"eng", "en", "", "JPN", "und"})
	want := []string{"en", "ja", "und"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	if NormalizeList(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
