package richtext

import "testing"

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		name      string
		candidate interface{}
		want      string
		wantOK    bool
	}{
		{"nil", nil, "", false},
		{"non-string", 42, "", false},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"inner space", "https://example.org/a b", "", false},
		{"control char", "https://example.org/\x01x", "", false},
		{"delete char", "https://example.org/\x7fx", "", false},
		{"javascript", "javascript:alert(1)", "", false},
		{"javascript mixed case", "JaVaScRiPt:alert(1)", "", false},
		{"relative path", "/about", "/about", true},
		{"anchor", "#section-2", "#section-2", true},
		{"mailto", "mailto:office@example.org", "mailto:office@example.org", true},
		{"tel", "tel:+4912345", "tel:+4912345", true},
		{"https", "https://example.org/page", "https://example.org/page", true},
		{"https trimmed", "  https://example.org/page  ", "https://example.org/page", true},
		{"http rejected", "http://example.org/page", "", false},
		{"ftp rejected", "ftp://example.org/file", "", false},
		{"scheme only data", "data:text/html,x", "", false},
		{"schemeless host", "example.org/page", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeLink(tt.candidate)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeLink(%v) ok = %v, want %v", tt.candidate, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("NormalizeLink(%v) = %q, want %q", tt.candidate, got, tt.want)
			}
		})
	}
}
