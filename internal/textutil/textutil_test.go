package textutil

import "testing"

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "The quick brown fox jumps", "the quick brown fox jumps", 1},
		{"disjoint", "apple banana cherry", "dog elephant frog", 0},
		{"empty", "", "apple banana", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(NewFingerprint(tt.a), NewFingerprint(tt.b))
			if got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupeIndexesKeepsFirstOccurrence(t *testing.T) {
	texts := []string{
		"Solar panel efficiency records in 2024",
		"Battery storage prices fall again",
		"solar panel efficiency records in 2024!",
		"",
	}
	got := DedupeIndexes(texts, 0.9)
	want := []int{0, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("DedupeIndexes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DedupeIndexes() = %v, want %v", got, want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("  latest   trends in   ai agents "); got != "Latest Trends In Ai Agents" {
		t.Fatalf("TitleCase() = %q", got)
	}
	if got := TitleCase("   "); got != "" {
		t.Fatalf("TitleCase(blank) = %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"What's new in Go 1.26?": "what-s-new-in-go-1-26",
		"   ":                    "untitled",
		"---":                    "untitled",
		"Über café":              "ber-caf",
	}
	for input, want := range tests {
		if got := SanitizeToken(input, 0); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
	if got := SanitizeToken("abcdef ghijk", 7); got != "abcdef" {
		t.Errorf("SanitizeToken with limit = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"a quick  brown\nfox", 0, "a quick brown fox"},
		{"a quick brown fox", 17, "a quick brown fox"},
		{"a quick brown fox", 10, "a quick b…"},
		{"a quick brown fox", 9, "a quick…"},
		{"naïve café", 4, "naï…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
