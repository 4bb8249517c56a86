package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"national US number", "(415) 555-2671", "+14155552671"},
		{"already E164", "+14155552671", "+14155552671"},
		{"international with spaces", "+31 6 12345678", "+31612345678"},
		{"whitespace trimmed", "  +14155552671  ", "+14155552671"},
		{"empty input", "", ""},
		{"garbage passes through", "not-a-number", "not-a-number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.input); got != tt.want {
				t.Errorf("NormalizeE164(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
