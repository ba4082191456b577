package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"en-IN", "en-IN", true},
		{"hi-in", "hi-IN", true},
		{"TA-IN", "ta-IN", true},
		{" pa-IN ", "pa-IN", true},
		{"en-US", "", false},
		{"fr", "", false},
		{"not a tag", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.input)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hi-IN", "Hindi"},
		{"ml-IN", "Malayalam"},
		{"en-IN", "English (India)"},
		{"xx-YY", "English (India)"},
		{"", "English (India)"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestEspeakVoice(t *testing.T) {
	if got := EspeakVoice("bn-IN"); got != "bn" {
		t.Fatalf("EspeakVoice(bn-IN) = %q", got)
	}
	if got := EspeakVoice("de-DE"); got != "de" {
		t.Fatalf("EspeakVoice(de-DE) = %q", got)
	}
}

func TestOptionsCoversAllLanguages(t *testing.T) {
	opts := Options()
	if len(opts) != 10 {
		t.Fatalf("expected 10 options, got %d", len(opts))
	}
	for i := 1; i < len(opts); i++ {
		if opts[i-1].Tag >= opts[i].Tag {
			t.Fatalf("options not sorted: %v", opts)
		}
	}
	if Base("kn-IN") != "kn" {
		t.Fatalf("unexpected base for kn-IN")
	}
}
