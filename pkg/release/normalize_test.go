package release

import "testing"

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Yuru Camp△", "yuru camp"},
		{"Yuru  Camp", "yuru camp"},
		{"Fate/stay night", "fate stay night"},
		{"Léon: The Professional", "leon the professional"},
		{"Kaguya-sama wa Kokurasetai", "kaguya sama wa kokurasetai"},
		{"Tom & Jerry", "tom and jerry"},
		{"ゆるキャン△", "ゆるキャン"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CleanTitle(tt.input)
			if got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEpisode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"05", "5"},
		{"5", "5"},
		{"5.0", "5"},
		{"12.5", "12.5"},
		{" 13 ", "13"},
		{"", ""},
		{"SP", ""},
		{"-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeEpisode(tt.input); got != tt.want {
				t.Errorf("NormalizeEpisode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
